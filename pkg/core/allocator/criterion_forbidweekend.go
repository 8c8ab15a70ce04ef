package allocator

import "fmt"

// ForbidWeekendCriterion applies forbidWeekend special rules.
//
// Validity:
//   - Returns false on a weekend if a forbidWeekend rule for the worker covers the location
//
// Penalty:
//   - None
type ForbidWeekendCriterion struct{}

// NewForbidWeekendCriterion creates a new ForbidWeekendCriterion
func NewForbidWeekendCriterion() *ForbidWeekendCriterion {
	return &ForbidWeekendCriterion{}
}

func (c *ForbidWeekendCriterion) Name() string {
	return "ForbidWeekend"
}

func (c *ForbidWeekendCriterion) IsCandidateValid(state *AllocationState, slot *Slot, worker *Worker) bool {
	if !slot.IsWeekend() {
		return true
	}
	return !isForbiddenOnWeekend(state, worker.ID, slot.Location.ID)
}

func (c *ForbidWeekendCriterion) CalculatePenalty(state *AllocationState, slot *Slot, worker *Worker) int {
	return 0
}

func (c *ForbidWeekendCriterion) ValidateRotaState(state *AllocationState) []SlotValidationError {
	var errors []SlotValidationError

	for _, d := range filledDecisions(state) {
		if !IsWeekend(state.Dates[d.DayIndex]) {
			continue
		}
		if isForbiddenOnWeekend(state, d.WorkerID, d.LocationID) {
			errors = append(errors, SlotValidationError{
				Date:          d.Date,
				LocationID:    d.LocationID,
				WorkerID:      d.WorkerID,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Worker '%s' is placed at weekend-excluded location '%s'", d.WorkerID, d.LocationID),
			})
		}
	}

	return errors
}

func isForbiddenOnWeekend(state *AllocationState, workerID, locationID string) bool {
	for _, rule := range state.SpecialRules {
		if rule.Kind == RuleForbidWeekend && rule.WorkerID == workerID && rule.Covers(locationID) {
			return true
		}
	}
	return false
}
