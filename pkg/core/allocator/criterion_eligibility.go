package allocator

import "fmt"

// EligibilityCriterion applies per-worker location settings.
//
// Validity:
//   - Preferred pass: the worker must be allowed and prefer the location
//   - Allowed pass: the worker must be allowed (a missing setting counts as allowed)
//
// Penalty:
//   - WeightPreferred when the worker prefers the location
type EligibilityCriterion struct{}

// NewEligibilityCriterion creates a new EligibilityCriterion
func NewEligibilityCriterion() *EligibilityCriterion {
	return &EligibilityCriterion{}
}

func (c *EligibilityCriterion) Name() string {
	return "Eligibility"
}

func (c *EligibilityCriterion) IsCandidateValid(state *AllocationState, slot *Slot, worker *Worker) bool {
	setting := state.EligibilityFor(worker.ID, slot.Location.ID)
	if slot.PreferredPass {
		return setting.Allowed && setting.Preferred
	}
	return setting.Allowed
}

func (c *EligibilityCriterion) CalculatePenalty(state *AllocationState, slot *Slot, worker *Worker) int {
	if state.EligibilityFor(worker.ID, slot.Location.ID).Preferred {
		return WeightPreferred
	}
	return 0
}

func (c *EligibilityCriterion) ValidateRotaState(state *AllocationState) []SlotValidationError {
	var errors []SlotValidationError

	for _, d := range filledDecisions(state) {
		if d.Reason == ReasonFrozen {
			continue
		}
		if !state.EligibilityFor(d.WorkerID, d.LocationID).Allowed {
			errors = append(errors, SlotValidationError{
				Date:          d.Date,
				LocationID:    d.LocationID,
				WorkerID:      d.WorkerID,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Worker '%s' is not allowed at location '%s'", d.WorkerID, d.LocationID),
			})
		}
	}

	return errors
}
