package allocator

import "fmt"

// WeekendOnlyCriterion keeps weekend-only locations and weekend-only workers off weekdays.
//
// Validity:
//   - Returns false on a weekday if the location is weekend-only
//   - Returns false on a weekday if the worker is weekend-only
//
// Penalty:
//   - None
type WeekendOnlyCriterion struct{}

// NewWeekendOnlyCriterion creates a new WeekendOnlyCriterion
func NewWeekendOnlyCriterion() *WeekendOnlyCriterion {
	return &WeekendOnlyCriterion{}
}

func (c *WeekendOnlyCriterion) Name() string {
	return "WeekendOnly"
}

func (c *WeekendOnlyCriterion) IsCandidateValid(state *AllocationState, slot *Slot, worker *Worker) bool {
	if slot.IsWeekend() {
		return true
	}
	return !slot.Location.WeekendOnly && !worker.WeekendOnly
}

func (c *WeekendOnlyCriterion) CalculatePenalty(state *AllocationState, slot *Slot, worker *Worker) int {
	return 0
}

func (c *WeekendOnlyCriterion) ValidateRotaState(state *AllocationState) []SlotValidationError {
	var errors []SlotValidationError

	for _, d := range filledDecisions(state) {
		if IsWeekend(state.Dates[d.DayIndex]) {
			continue
		}

		if loc := state.LocationByID(d.LocationID); loc != nil && loc.WeekendOnly {
			errors = append(errors, SlotValidationError{
				Date:          d.Date,
				LocationID:    d.LocationID,
				WorkerID:      d.WorkerID,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Weekend-only location '%s' is staffed on a weekday", loc.Name),
			})
		}

		if worker := state.WorkerByID(d.WorkerID); worker != nil && worker.WeekendOnly {
			errors = append(errors, SlotValidationError{
				Date:          d.Date,
				LocationID:    d.LocationID,
				WorkerID:      d.WorkerID,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Weekend-only worker '%s' is placed on a weekday", worker.Name),
			})
		}
	}

	return errors
}
