package roster

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/db"
)

// SettingKey identifies an eligibility setting
type SettingKey struct {
	WorkerID   string
	LocationID string
}

// Roster is the read-only input to one allocation run
type Roster struct {
	// Workers are the schedulable workers ordered by name
	Workers []model.Worker

	// Locations are the active locations ordered by display order
	Locations []model.Location

	Settings map[SettingKey]model.EligibilitySetting

	// WeekendOnlyLocations holds the IDs of locations offered only on Saturday and Sunday
	WeekendOnlyLocations map[string]bool

	// WeekendOnlyWorkers holds the IDs of workers whose allowed locations are all weekend-only
	WeekendOnlyWorkers map[string]bool

	allWorkers []model.Worker
}

// Load reads workers, locations and settings from store and derives the weekend-only flags.
// weekendOnlyNames lists location names (case-insensitive) that are only offered at weekends.
func Load(ctx context.Context, store db.RosterStore, weekendOnlyNames []string) (*Roster, error) {
	workers, err := store.GetWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workers: %w", err)
	}

	locations, err := store.GetLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch locations: %w", err)
	}

	settings, err := store.GetEligibilitySettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch eligibility settings: %w", err)
	}

	return Build(workers, locations, settings, weekendOnlyNames), nil
}

// Build assembles a Roster from already-fetched records
func Build(workers []model.Worker, locations []model.Location, settings []model.EligibilitySetting, weekendOnlyNames []string) *Roster {
	r := &Roster{
		Settings:             make(map[SettingKey]model.EligibilitySetting, len(settings)),
		WeekendOnlyLocations: make(map[string]bool),
		WeekendOnlyWorkers:   make(map[string]bool),
		allWorkers:           workers,
	}

	for _, w := range workers {
		if w.Schedulable() {
			r.Workers = append(r.Workers, w)
		}
	}
	sort.SliceStable(r.Workers, func(i, j int) bool {
		return r.Workers[i].Name < r.Workers[j].Name
	})

	for _, l := range locations {
		if !l.IsActive {
			continue
		}
		r.Locations = append(r.Locations, l)
		if matchesName(l.Name, weekendOnlyNames) {
			r.WeekendOnlyLocations[l.ID] = true
		}
	}
	sort.SliceStable(r.Locations, func(i, j int) bool {
		return r.Locations[i].DisplayOrder < r.Locations[j].DisplayOrder
	})

	active := make(map[string]bool, len(r.Locations))
	for _, l := range r.Locations {
		active[l.ID] = true
	}

	allowedAnywhere := make(map[string]bool)
	allowedWeekday := make(map[string]bool)
	for _, s := range settings {
		r.Settings[SettingKey{WorkerID: s.WorkerID, LocationID: s.LocationID}] = s

		// Settings on inactive or unknown locations do not count
		if !s.IsAllowed || !active[s.LocationID] {
			continue
		}
		allowedAnywhere[s.WorkerID] = true
		if !r.WeekendOnlyLocations[s.LocationID] {
			allowedWeekday[s.WorkerID] = true
		}
	}

	for workerID := range allowedAnywhere {
		if !allowedWeekday[workerID] {
			r.WeekendOnlyWorkers[workerID] = true
		}
	}

	return r
}

// Setting returns the explicit setting for a worker and location, if one exists
func (r *Roster) Setting(workerID, locationID string) (model.EligibilitySetting, bool) {
	s, ok := r.Settings[SettingKey{WorkerID: workerID, LocationID: locationID}]
	return s, ok
}

// WorkerIDByName resolves a worker name to an ID across every worker, schedulable or not
func (r *Roster) WorkerIDByName(name string) (string, bool) {
	for _, w := range r.allWorkers {
		if strings.EqualFold(w.Name, name) {
			return w.ID, true
		}
	}
	return "", false
}

// LocationIDByName resolves an active location name to an ID
func (r *Roster) LocationIDByName(name string) (string, bool) {
	for _, l := range r.Locations {
		if strings.EqualFold(l.Name, name) {
			return l.ID, true
		}
	}
	return "", false
}

// WorkerNames maps every known worker ID to a display name
func (r *Roster) WorkerNames() map[string]string {
	names := make(map[string]string, len(r.allWorkers))
	for _, w := range r.allWorkers {
		names[w.ID] = w.Name
	}
	return names
}

// LocationOrder maps active location IDs to their position in display order
func (r *Roster) LocationOrder() map[string]int {
	order := make(map[string]int, len(r.Locations))
	for i, l := range r.Locations {
		order[l.ID] = i
	}
	return order
}

func matchesName(name string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}
