package allocator

import "fmt"

// OneSlotPerDayCriterion keeps each worker to a single location per day.
//
// Validity:
//   - Returns false if the worker already holds a slot on the day
//
// Penalty:
//   - None
type OneSlotPerDayCriterion struct{}

// NewOneSlotPerDayCriterion creates a new OneSlotPerDayCriterion
func NewOneSlotPerDayCriterion() *OneSlotPerDayCriterion {
	return &OneSlotPerDayCriterion{}
}

func (c *OneSlotPerDayCriterion) Name() string {
	return "OneSlotPerDay"
}

func (c *OneSlotPerDayCriterion) IsCandidateValid(state *AllocationState, slot *Slot, worker *Worker) bool {
	return !state.IsAssignedToday(worker.ID)
}

func (c *OneSlotPerDayCriterion) CalculatePenalty(state *AllocationState, slot *Slot, worker *Worker) int {
	return 0
}

func (c *OneSlotPerDayCriterion) ValidateRotaState(state *AllocationState) []SlotValidationError {
	var errors []SlotValidationError

	type workerDay struct {
		workerID string
		date     string
	}
	firstLocation := make(map[workerDay]string)

	for _, d := range filledDecisions(state) {
		key := workerDay{workerID: d.WorkerID, date: d.Date}
		first, seen := firstLocation[key]
		if !seen {
			firstLocation[key] = d.LocationID
			continue
		}
		errors = append(errors, SlotValidationError{
			Date:          d.Date,
			LocationID:    d.LocationID,
			WorkerID:      d.WorkerID,
			CriterionName: c.Name(),
			Description:   fmt.Sprintf("Worker '%s' holds both '%s' and '%s' on the same day", d.WorkerID, first, d.LocationID),
		})
	}

	return errors
}
