package allocator

import "time"

type workerWeek struct {
	workerID string
	week     int
}

type ruleWeek struct {
	rule int
	week int
}

// AllocationState is everything one allocation run reads and mutates.
// It is built by InitAllocation and threaded through every criterion call.
type AllocationState struct {
	Dates         []time.Time
	Workers       []*Worker
	Locations     []*Location
	Eligibility   map[EligibilityKey]Eligibility
	Limits        Limits
	ConflictPairs []ConflictPair
	SpecialRules  []SpecialRule

	// Decisions holds every resolved slot ordered by date, then location display order
	Decisions []Decision

	workersByID   map[string]*Worker
	locationsByID map[string]*Location
	dayByDate     map[string]int

	weekCount     map[workerWeek]int
	totalCount    map[string]int
	worked        map[string]map[int]bool
	history       map[string]map[int]bool
	usedLocations map[workerWeek]map[string]bool
	quotaDone     map[ruleWeek]bool

	frozen     map[int][]Assignment
	dayResults map[int][]Decision
	today      *dayState
}

// dayState tracks placements on the day currently being allocated
type dayState struct {
	dayIndex  int
	assigned  map[string]string
	filled    map[string]Decision
	zones     map[string]map[string]bool
	carryOver []Decision
}

func newDayState(dayIndex int) *dayState {
	return &dayState{
		dayIndex: dayIndex,
		assigned: make(map[string]string),
		filled:   make(map[string]Decision),
		zones:    make(map[string]map[string]bool),
	}
}

// WeekIndex returns the 7-day block a day belongs to, counted from the window start.
// Days before the window fall into negative weeks.
func WeekIndex(dayIndex int) int {
	if dayIndex >= 0 {
		return dayIndex / 7
	}
	return -((-dayIndex + 6) / 7)
}

// DayIndex returns the offset of date from the window start
func (s *AllocationState) DayIndex(date string) (int, bool) {
	idx, ok := s.dayByDate[date]
	return idx, ok
}

// WorkerByID returns the worker with the given ID, or nil
func (s *AllocationState) WorkerByID(id string) *Worker {
	return s.workersByID[id]
}

// LocationByID returns the location with the given ID, or nil
func (s *AllocationState) LocationByID(id string) *Location {
	return s.locationsByID[id]
}

// EligibilityFor returns the worker's setting for a location, falling back to DefaultEligibility
func (s *AllocationState) EligibilityFor(workerID, locationID string) Eligibility {
	if e, ok := s.Eligibility[EligibilityKey{WorkerID: workerID, LocationID: locationID}]; ok {
		return e
	}
	return DefaultEligibility
}

// WeekCount returns how many days the worker is placed in the given week
func (s *AllocationState) WeekCount(workerID string, week int) int {
	return s.weekCount[workerWeek{workerID: workerID, week: week}]
}

// TotalCount returns how many days the worker is placed across the window
func (s *AllocationState) TotalCount(workerID string) int {
	return s.totalCount[workerID]
}

// Streak returns the length of the run of consecutive worked days adjacent to dayIndex,
// not counting dayIndex itself. Days before the window come from history.
func (s *AllocationState) Streak(workerID string, dayIndex int) int {
	days := s.worked[workerID]
	past := s.history[workerID]
	isWorked := func(d int) bool {
		return days[d] || past[d]
	}

	streak := 0
	for d := dayIndex - 1; isWorked(d); d-- {
		streak++
	}
	for d := dayIndex + 1; isWorked(d); d++ {
		streak++
	}
	return streak
}

// HasWorkedLocation reports whether the worker already covers the location in the given week
func (s *AllocationState) HasWorkedLocation(workerID string, week int, locationID string) bool {
	return s.usedLocations[workerWeek{workerID: workerID, week: week}][locationID]
}

// QuotaSatisfied reports whether the special rule at ruleIndex is met for the week
func (s *AllocationState) QuotaSatisfied(ruleIndex, week int) bool {
	return s.quotaDone[ruleWeek{rule: ruleIndex, week: week}]
}

// IsAssignedToday reports whether the worker already holds a slot on the current day
func (s *AllocationState) IsAssignedToday(workerID string) bool {
	if s.today == nil {
		return false
	}
	_, ok := s.today.assigned[workerID]
	return ok
}

// ZoneHasWorkerToday reports whether the worker holds a slot in the zone on the current day
func (s *AllocationState) ZoneHasWorkerToday(zone, workerID string) bool {
	if s.today == nil {
		return false
	}
	return s.today.zones[zone][workerID]
}

// IsFilledToday reports whether the location already has a worker on the current day
func (s *AllocationState) IsFilledToday(locationID string) bool {
	if s.today == nil {
		return false
	}
	_, ok := s.today.filled[locationID]
	return ok
}

// recordPlacement updates the window counters for a worker placed at a location on a day
func (s *AllocationState) recordPlacement(workerID, locationID string, dayIndex int) {
	week := WeekIndex(dayIndex)
	key := workerWeek{workerID: workerID, week: week}

	s.weekCount[key]++
	s.totalCount[workerID]++

	if s.worked[workerID] == nil {
		s.worked[workerID] = make(map[int]bool)
	}
	s.worked[workerID][dayIndex] = true

	if s.usedLocations[key] == nil {
		s.usedLocations[key] = make(map[string]bool)
	}
	s.usedLocations[key][locationID] = true

	if !IsWeekend(s.Dates[dayIndex]) {
		return
	}
	for i, rule := range s.SpecialRules {
		if rule.IsQuotaRule() && rule.WorkerID == workerID && rule.Covers(locationID) {
			s.quotaDone[ruleWeek{rule: i, week: week}] = true
		}
	}
}

// recordHistory marks a day before the window as worked
func (s *AllocationState) recordHistory(workerID string, dayIndex int) {
	if s.history[workerID] == nil {
		s.history[workerID] = make(map[int]bool)
	}
	s.history[workerID][dayIndex] = true
}

// beginDay starts a new day, seeding it with that day's frozen assignments
func (s *AllocationState) beginDay(dayIndex int) {
	s.today = newDayState(dayIndex)
	date := s.Dates[dayIndex].Format(DateLayout)

	for _, a := range s.frozen[dayIndex] {
		decision := Decision{
			Date:       date,
			DayIndex:   dayIndex,
			LocationID: a.LocationID,
			WorkerID:   a.WorkerID,
			Reason:     ReasonFrozen,
		}

		loc := s.locationsByID[a.LocationID]
		if loc == nil {
			// Keep assignments to locations that are no longer active
			s.today.carryOver = append(s.today.carryOver, decision)
			s.today.assigned[a.WorkerID] = a.LocationID
			continue
		}
		s.placeToday(loc, decision)
	}
}

// placeToday records a decision in the current day's state
func (s *AllocationState) placeToday(loc *Location, decision Decision) {
	s.today.filled[loc.ID] = decision
	s.today.assigned[decision.WorkerID] = loc.ID
	if s.today.zones[loc.Zone] == nil {
		s.today.zones[loc.Zone] = make(map[string]bool)
	}
	s.today.zones[loc.Zone][decision.WorkerID] = true
}

// commit places a worker into a slot
func (s *AllocationState) commit(slot *Slot, worker *Worker, reason DecisionReason) {
	s.placeToday(slot.Location, Decision{
		Date:       slot.DateString(),
		DayIndex:   slot.DayIndex,
		LocationID: slot.Location.ID,
		WorkerID:   worker.ID,
		Reason:     reason,
	})
	s.recordPlacement(worker.ID, slot.Location.ID, slot.DayIndex)
}

// endDay emits one decision per offered location, leaving unfilled ones open
func (s *AllocationState) endDay() {
	dayIndex := s.today.dayIndex
	date := s.Dates[dayIndex]

	var results []Decision
	for _, loc := range s.Locations {
		if decision, ok := s.today.filled[loc.ID]; ok {
			results = append(results, decision)
			continue
		}
		if loc.WeekendOnly && !IsWeekend(date) {
			continue
		}
		results = append(results, Decision{
			Date:       date.Format(DateLayout),
			DayIndex:   dayIndex,
			LocationID: loc.ID,
			Reason:     ReasonOpen,
		})
	}
	results = append(results, s.today.carryOver...)

	s.dayResults[dayIndex] = results
	s.today = nil
}

// collectDecisions orders the per-day results by date
func (s *AllocationState) collectDecisions() {
	s.Decisions = s.Decisions[:0]
	for i := range s.Dates {
		s.Decisions = append(s.Decisions, s.dayResults[i]...)
	}
}
