package allocator

// LocationRotationCriterion spreads each worker across locations within a week.
//
// Validity:
//   - Always valid
//
// Penalty:
//   - WeightRepeatLocation if the worker already covers the location this week
type LocationRotationCriterion struct{}

// NewLocationRotationCriterion creates a new LocationRotationCriterion
func NewLocationRotationCriterion() *LocationRotationCriterion {
	return &LocationRotationCriterion{}
}

func (c *LocationRotationCriterion) Name() string {
	return "LocationRotation"
}

func (c *LocationRotationCriterion) IsCandidateValid(state *AllocationState, slot *Slot, worker *Worker) bool {
	return true
}

func (c *LocationRotationCriterion) CalculatePenalty(state *AllocationState, slot *Slot, worker *Worker) int {
	if state.HasWorkedLocation(worker.ID, slot.WeekIndex, slot.Location.ID) {
		return WeightRepeatLocation
	}
	return 0
}

func (c *LocationRotationCriterion) ValidateRotaState(state *AllocationState) []SlotValidationError {
	// Repeats are discouraged, not forbidden
	return nil
}
