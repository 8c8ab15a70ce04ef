package services

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/core/allocator"
	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/core/roster"
	"github.com/jakechorley/venue-rota/pkg/db"
)

const dateLayout = "2006-01-02"

// Window is a run of whole weeks starting on Start
type Window struct {
	Start time.Time
	Weeks int
}

// End returns the last day of the window
func (w Window) End() time.Time {
	return w.Start.AddDate(0, 0, 7*w.Weeks-1)
}

// Dates returns every day of the window in order
func (w Window) Dates() []time.Time {
	dates := make([]time.Time, 7*w.Weeks)
	for i := range dates {
		dates[i] = w.Start.AddDate(0, 0, i)
	}
	return dates
}

// Contains reports whether date (YYYY-MM-DD) falls inside the window
func (w Window) Contains(date string) bool {
	return date >= w.Start.Format(dateLayout) && date <= w.End().Format(dateLayout)
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format(dateLayout), w.End().Format(dateLayout))
}

// ResolveWindow builds a window from an optional start date and week count.
// An empty start means the nearest upcoming Monday; zero weeks means the configured default.
func ResolveWindow(start string, weeks int, cfg *config.Config, now time.Time) (Window, error) {
	if weeks == 0 {
		weeks = cfg.Window.Weeks
	}
	if weeks < 1 {
		return Window{}, fmt.Errorf("%w: weeks must be positive, got %d", ErrInvalidWindow, weeks)
	}

	if start == "" {
		return Window{Start: nextMonday(now), Weeks: weeks}, nil
	}

	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return Window{}, fmt.Errorf("%w: invalid start date %q", ErrInvalidWindow, start)
	}
	return Window{Start: startDate, Weeks: weeks}, nil
}

// nextMonday returns the nearest Monday on or after the given date
func nextMonday(from time.Time) time.Time {
	normalized := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	daysUntilMonday := (8 - int(normalized.Weekday())) % 7
	return normalized.AddDate(0, 0, daysUntilMonday)
}

// weekStart returns the Monday of the week containing the given date
func weekStart(t time.Time) time.Time {
	normalized := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(normalized.Weekday()) + 6) % 7
	return normalized.AddDate(0, 0, -offset)
}

// newRand returns the tie-break shuffler for a run, or nil for name order.
// An explicit seed always shuffles; randomize without a seed uses the clock.
func newRand(cfg *config.Config, seed *int64, logger *zap.Logger) *rand.Rand {
	if seed == nil {
		seed = cfg.Window.Seed
	}
	if seed == nil && !cfg.Window.Randomize {
		return nil
	}

	var s int64
	if seed != nil {
		s = *seed
	} else {
		s = time.Now().UnixNano()
	}
	logger.Debug("Shuffling tie-breaks", zap.Int64("seed", s))
	return rand.New(rand.NewPCG(uint64(s), uint64(s)^0x9e3779b97f4a7c15))
}

// buildAllocationConfig converts the roster and configuration into allocator input.
// Names in the rules that do not match the roster are logged and skipped.
func buildAllocationConfig(
	r *roster.Roster,
	cfg *config.Config,
	window Window,
	frozen []db.Shift,
	history []db.Shift,
	rng *rand.Rand,
	logger *zap.Logger,
) allocator.AllocationConfig {
	workers := make([]allocator.Worker, 0, len(r.Workers))
	for _, w := range r.Workers {
		workers = append(workers, allocator.Worker{
			ID:          w.ID,
			Name:        w.Name,
			WeekendOnly: r.WeekendOnlyWorkers[w.ID],
		})
	}

	locations := make([]allocator.Location, 0, len(r.Locations))
	for _, l := range r.Locations {
		locations = append(locations, allocator.Location{
			ID:           l.ID,
			Name:         l.Name,
			Zone:         l.Zone,
			DisplayOrder: l.DisplayOrder,
			WeekendOnly:  r.WeekendOnlyLocations[l.ID],
		})
	}

	eligibility := make(map[allocator.EligibilityKey]allocator.Eligibility, len(r.Settings))
	for key, s := range r.Settings {
		eligibility[allocator.EligibilityKey{WorkerID: key.WorkerID, LocationID: key.LocationID}] = allocator.Eligibility{
			Allowed:   s.IsAllowed,
			Preferred: s.IsPreferred,
		}
	}

	return allocator.AllocationConfig{
		Dates:       window.Dates(),
		Workers:     workers,
		Locations:   locations,
		Eligibility: eligibility,
		Limits: allocator.Limits{
			SoftWeekTarget:   cfg.Rules.SoftWeekTarget,
			HardWeekCap:      cfg.Rules.HardWeekCap,
			SoftStreakTarget: cfg.Rules.SoftStreakTarget,
			HardStreakCap:    cfg.Rules.HardStreakCap,
		},
		ConflictPairs: convertConflictPairs(r, cfg.Rules.ConflictPairs, logger),
		SpecialRules:  convertSpecialRules(r, cfg.Rules.SpecialRules, logger),
		Frozen:        shiftsToAssignments(frozen),
		History:       shiftsToAssignments(history),
		WeekendFirst:  cfg.Window.WeekendFirst,
		Rand:          rng,
	}
}

func convertConflictPairs(r *roster.Roster, pairs [][]string, logger *zap.Logger) []allocator.ConflictPair {
	result := make([]allocator.ConflictPair, 0, len(pairs))
	for _, pair := range pairs {
		first, ok1 := r.WorkerIDByName(pair[0])
		second, ok2 := r.WorkerIDByName(pair[1])
		if !ok1 || !ok2 {
			logger.Warn("Skipping conflict pair with unknown worker", zap.Strings("pair", pair))
			continue
		}
		result = append(result, allocator.ConflictPair{first, second})
	}
	return result
}

func convertSpecialRules(r *roster.Roster, rules []config.SpecialRule, logger *zap.Logger) []allocator.SpecialRule {
	result := make([]allocator.SpecialRule, 0, len(rules))
	for i, rule := range rules {
		workerID, ok := r.WorkerIDByName(rule.Worker)
		if !ok {
			logger.Warn("Skipping special rule with unknown worker",
				zap.Int("index", i),
				zap.String("kind", rule.Kind),
				zap.String("worker", rule.Worker))
			continue
		}

		names := rule.Locations
		if rule.Kind == config.RuleMasterOnce {
			names = []string{rule.Location}
		}

		var locationIDs []string
		for _, name := range names {
			id, ok := r.LocationIDByName(name)
			if !ok {
				logger.Warn("Ignoring unknown or inactive location in special rule",
					zap.Int("index", i),
					zap.String("location", name))
				continue
			}
			locationIDs = append(locationIDs, id)
		}
		if len(locationIDs) == 0 {
			logger.Warn("Skipping special rule with no active locations", zap.Int("index", i))
			continue
		}

		result = append(result, allocator.SpecialRule{
			Kind:        allocator.RuleKind(rule.Kind),
			WorkerID:    workerID,
			LocationIDs: locationIDs,
		})
	}
	return result
}

func shiftsToAssignments(shifts []db.Shift) []allocator.Assignment {
	assignments := make([]allocator.Assignment, 0, len(shifts))
	for _, s := range shifts {
		if s.IsOpen() {
			continue
		}
		assignments = append(assignments, allocator.Assignment{
			Date:       s.ShiftDate,
			LocationID: s.LocationID,
			WorkerID:   s.WorkerID,
		})
	}
	return assignments
}

// decisionsToShifts builds new shift rows, one per decision, in the given status
func decisionsToShifts(decisions []allocator.Decision, status model.Status) []db.Shift {
	shifts := make([]db.Shift, len(decisions))
	for i, d := range decisions {
		shifts[i] = db.Shift{
			ID:         uuid.New().String(),
			ShiftDate:  d.Date,
			LocationID: d.LocationID,
			WorkerID:   d.WorkerID,
			Status:     status,
		}
	}
	return shifts
}

// cloneShifts copies shifts into new rows with fresh IDs and the given status
func cloneShifts(shifts []db.Shift, status model.Status) []db.Shift {
	clones := make([]db.Shift, len(shifts))
	for i, s := range shifts {
		clones[i] = db.Shift{
			ID:         uuid.New().String(),
			ShiftDate:  s.ShiftDate,
			LocationID: s.LocationID,
			WorkerID:   s.WorkerID,
			Status:     status,
		}
	}
	return clones
}
