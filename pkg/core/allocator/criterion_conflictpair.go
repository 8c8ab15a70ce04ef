package allocator

import "fmt"

// ConflictPairCriterion keeps the two workers of each conflict pair out of the same zone on the same day.
//
// Validity:
//   - Returns false if the worker's partner already holds a slot in the location's zone that day
//
// Penalty:
//   - None
type ConflictPairCriterion struct{}

// NewConflictPairCriterion creates a new ConflictPairCriterion
func NewConflictPairCriterion() *ConflictPairCriterion {
	return &ConflictPairCriterion{}
}

func (c *ConflictPairCriterion) Name() string {
	return "ConflictPair"
}

func (c *ConflictPairCriterion) IsCandidateValid(state *AllocationState, slot *Slot, worker *Worker) bool {
	for _, pair := range state.ConflictPairs {
		partner := pair.Partner(worker.ID)
		if partner != "" && state.ZoneHasWorkerToday(slot.Location.Zone, partner) {
			return false
		}
	}
	return true
}

func (c *ConflictPairCriterion) CalculatePenalty(state *AllocationState, slot *Slot, worker *Worker) int {
	return 0
}

func (c *ConflictPairCriterion) ValidateRotaState(state *AllocationState) []SlotValidationError {
	var errors []SlotValidationError

	// date -> zone -> workers
	zonesByDate := make(map[string]map[string]map[string]bool)
	for _, d := range filledDecisions(state) {
		loc := state.LocationByID(d.LocationID)
		if loc == nil {
			continue
		}
		if zonesByDate[d.Date] == nil {
			zonesByDate[d.Date] = make(map[string]map[string]bool)
		}
		if zonesByDate[d.Date][loc.Zone] == nil {
			zonesByDate[d.Date][loc.Zone] = make(map[string]bool)
		}
		zonesByDate[d.Date][loc.Zone][d.WorkerID] = true
	}

	for _, date := range state.Dates {
		dateStr := date.Format(DateLayout)
		for zone, workers := range zonesByDate[dateStr] {
			for _, pair := range state.ConflictPairs {
				if workers[pair[0]] && workers[pair[1]] {
					errors = append(errors, SlotValidationError{
						Date:          dateStr,
						WorkerID:      pair[0],
						CriterionName: c.Name(),
						Description:   fmt.Sprintf("Workers '%s' and '%s' share zone '%s'", pair[0], pair[1], zone),
					})
				}
			}
		}
	}

	return errors
}
