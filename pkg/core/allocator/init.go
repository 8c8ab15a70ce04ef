package allocator

import (
	"fmt"
	"sort"
	"time"
)

// InitAllocation validates the config and builds the allocator with its initial state.
//
// Workers are ordered by name and locations by display order so that ties resolve the
// same way on every run. Frozen assignments are counted up front so that weekly counts
// and streaks see them whatever order days are processed in.
func InitAllocation(config AllocationConfig) (*Allocator, error) {
	if len(config.Dates) == 0 {
		return nil, fmt.Errorf("no dates to allocate")
	}
	for i := 1; i < len(config.Dates); i++ {
		if !config.Dates[i].Equal(config.Dates[i-1].AddDate(0, 0, 1)) {
			return nil, fmt.Errorf("dates must be consecutive days: %s follows %s",
				config.Dates[i].Format(DateLayout), config.Dates[i-1].Format(DateLayout))
		}
	}

	limits := config.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}

	criteria := config.Criteria
	if len(criteria) == 0 {
		criteria = DefaultCriteria()
	}

	state := &AllocationState{
		Dates:         config.Dates,
		Eligibility:   config.Eligibility,
		Limits:        limits,
		ConflictPairs: config.ConflictPairs,
		SpecialRules:  config.SpecialRules,
		workersByID:   make(map[string]*Worker),
		locationsByID: make(map[string]*Location),
		dayByDate:     make(map[string]int),
		weekCount:     make(map[workerWeek]int),
		totalCount:    make(map[string]int),
		worked:        make(map[string]map[int]bool),
		history:       make(map[string]map[int]bool),
		usedLocations: make(map[workerWeek]map[string]bool),
		quotaDone:     make(map[ruleWeek]bool),
		frozen:        make(map[int][]Assignment),
		dayResults:    make(map[int][]Decision),
	}
	if state.Eligibility == nil {
		state.Eligibility = make(map[EligibilityKey]Eligibility)
	}

	for i, date := range config.Dates {
		state.dayByDate[date.Format(DateLayout)] = i
	}

	for i := range config.Workers {
		worker := config.Workers[i]
		if _, exists := state.workersByID[worker.ID]; exists {
			return nil, fmt.Errorf("duplicate worker: %s", worker.ID)
		}
		state.workersByID[worker.ID] = &worker
		state.Workers = append(state.Workers, &worker)
	}
	sort.SliceStable(state.Workers, func(i, j int) bool {
		if state.Workers[i].Name != state.Workers[j].Name {
			return state.Workers[i].Name < state.Workers[j].Name
		}
		return state.Workers[i].ID < state.Workers[j].ID
	})

	for i := range config.Locations {
		location := config.Locations[i]
		if _, exists := state.locationsByID[location.ID]; exists {
			return nil, fmt.Errorf("duplicate location: %s", location.ID)
		}
		state.locationsByID[location.ID] = &location
		state.Locations = append(state.Locations, &location)
	}
	sort.SliceStable(state.Locations, func(i, j int) bool {
		return state.Locations[i].DisplayOrder < state.Locations[j].DisplayOrder
	})

	for i, rule := range config.SpecialRules {
		if rule.Kind == RuleMasterOnce && len(rule.LocationIDs) != 1 {
			return nil, fmt.Errorf("special rule %d (%s) must name exactly one location", i, rule.Kind)
		}
	}

	seen := make(map[string]bool)
	for _, a := range config.Frozen {
		dayIndex, ok := state.dayByDate[a.Date]
		if !ok || a.WorkerID == "" {
			continue
		}
		key := a.Date + "/" + a.LocationID
		if seen[key] {
			return nil, fmt.Errorf("duplicate frozen assignment for %s at %s", a.Date, a.LocationID)
		}
		seen[key] = true

		state.frozen[dayIndex] = append(state.frozen[dayIndex], a)
		state.recordPlacement(a.WorkerID, a.LocationID, dayIndex)
	}

	start := config.Dates[0]
	for _, a := range config.History {
		if a.WorkerID == "" {
			continue
		}
		date, err := time.Parse(DateLayout, a.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid history date %q: %w", a.Date, err)
		}
		dayIndex := daysBetween(start, date)
		if dayIndex >= 0 {
			continue
		}
		state.recordHistory(a.WorkerID, dayIndex)
	}

	return &Allocator{
		criteria: criteria,
		state:    state,
		order:    dayOrder(config.Dates, config.WeekendFirst),
		rng:      config.Rand,
	}, nil
}

// dayOrder returns day indices in processing order. With weekendFirst, each 7-day block
// handles its Saturday and Sunday before its weekdays.
func dayOrder(dates []time.Time, weekendFirst bool) []int {
	order := make([]int, 0, len(dates))
	if !weekendFirst {
		for i := range dates {
			order = append(order, i)
		}
		return order
	}

	for blockStart := 0; blockStart < len(dates); blockStart += 7 {
		blockEnd := min(blockStart+7, len(dates))
		for i := blockStart; i < blockEnd; i++ {
			if IsWeekend(dates[i]) {
				order = append(order, i)
			}
		}
		for i := blockStart; i < blockEnd; i++ {
			if !IsWeekend(dates[i]) {
				order = append(order, i)
			}
		}
	}
	return order
}

// daysBetween returns the number of calendar days from a to b
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
