package allocator

import (
	"math/rand/v2"
	"time"
)

// Allocator fills every offered slot in a window, one day at a time
type Allocator struct {
	criteria []Criterion
	state    *AllocationState
	order    []int
	rng      *rand.Rand
}

// AllocationConfig contains the configuration for creating a new Allocator
type AllocationConfig struct {
	// Criteria to apply during allocation. Defaults to DefaultCriteria().
	Criteria []Criterion

	// Dates are the consecutive days of the window. Day 0 starts week 0.
	Dates []time.Time

	// Workers is the schedulable roster
	Workers []Worker

	// Locations are the active slot-types
	Locations []Location

	// Eligibility holds explicit settings. Missing pairs use DefaultEligibility.
	Eligibility map[EligibilityKey]Eligibility

	// Limits defaults to DefaultLimits() when zero
	Limits Limits

	ConflictPairs []ConflictPair
	SpecialRules  []SpecialRule

	// Frozen assignments inside the window are kept as they are
	Frozen []Assignment

	// History holds assignments from the days just before the window, used to continue streaks
	History []Assignment

	// WeekendFirst processes each week's Saturday and Sunday before its weekdays
	WeekendFirst bool

	// Rand shuffles candidates before ranking so ties break randomly. Nil keeps name order.
	Rand *rand.Rand
}

// AllocationOutcome represents the result of an allocation run
type AllocationOutcome struct {
	// State is the final allocation state
	State *AllocationState

	// Decisions has one entry per offered slot, ordered by date then location display order
	Decisions []Decision

	FilledCount int
	OpenCount   int

	// ValidationErrors contains any invariant violations found in the final state
	ValidationErrors []SlotValidationError
}

// Allocate runs the main allocation loop over the window
func Allocate(config AllocationConfig) (*AllocationOutcome, error) {
	allocator, err := InitAllocation(config)
	if err != nil {
		return nil, err
	}

	for _, dayIndex := range allocator.order {
		allocator.allocateDay(dayIndex)
	}

	return allocator.buildOutcome(), nil
}

// allocateDay fills the day's locations, preferred candidates first
func (a *Allocator) allocateDay(dayIndex int) {
	state := a.state
	date := state.Dates[dayIndex]

	state.beginDay(dayIndex)

	for _, preferredPass := range []bool{true, false} {
		for _, location := range state.Locations {
			if location.WeekendOnly && !IsWeekend(date) {
				continue
			}
			if state.IsFilledToday(location.ID) {
				continue
			}

			slot := &Slot{
				Date:          date,
				DayIndex:      dayIndex,
				WeekIndex:     WeekIndex(dayIndex),
				Location:      location,
				PreferredPass: preferredPass,
			}

			worker, reason := a.chooseWorker(slot)
			if worker == nil {
				continue
			}
			state.commit(slot, worker, reason)
		}
	}

	state.endDay()
}

// chooseWorker picks the worker for a slot, or nil if no candidate survives the hard constraints
func (a *Allocator) chooseWorker(slot *Slot) (*Worker, DecisionReason) {
	pool := a.eligiblePool(slot)
	if len(pool) == 0 {
		return nil, ReasonOpen
	}

	if worker := resolveSpecialRule(a.state, slot, pool); worker != nil {
		return worker, ReasonSpecialRule
	}

	ranked := RankCandidates(a.state, slot, pool, a.criteria, a.rng)
	return ranked[0], ReasonScored
}

// eligiblePool returns the workers that pass every hard constraint for the slot, in name order
func (a *Allocator) eligiblePool(slot *Slot) []*Worker {
	var pool []*Worker
	for _, worker := range a.state.Workers {
		if IsCandidateValid(a.state, slot, worker, a.criteria) {
			pool = append(pool, worker)
		}
	}
	return pool
}

// buildOutcome collects the decisions and validates the finished rota
func (a *Allocator) buildOutcome() *AllocationOutcome {
	a.state.collectDecisions()

	outcome := &AllocationOutcome{
		State:     a.state,
		Decisions: a.state.Decisions,
	}
	for _, d := range a.state.Decisions {
		if d.IsOpen() {
			outcome.OpenCount++
		} else {
			outcome.FilledCount++
		}
	}

	outcome.ValidationErrors = ValidateRotaState(a.state, a.criteria)

	return outcome
}
