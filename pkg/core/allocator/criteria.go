package allocator

// Criterion is a rule applied while filling slots.
//
// Hard rules veto candidates through IsCandidateValid. Soft rules contribute to the
// ranking penalty through CalculatePenalty, where lower totals win. A criterion may do both.
type Criterion interface {
	// Name returns the criterion name used in validation reports
	Name() string

	// IsCandidateValid returns false if placing worker into slot would break the rule
	IsCandidateValid(state *AllocationState, slot *Slot, worker *Worker) bool

	// CalculatePenalty returns this rule's contribution to the worker's ranking penalty for slot
	CalculatePenalty(state *AllocationState, slot *Slot, worker *Worker) int

	// ValidateRotaState checks the finished rota and returns any violations.
	// Frozen decisions are checked too, since they can break rules the allocator enforces.
	ValidateRotaState(state *AllocationState) []SlotValidationError
}

// DefaultCriteria returns the full rule catalogue in evaluation order
func DefaultCriteria() []Criterion {
	return []Criterion{
		NewEligibilityCriterion(),
		NewOneSlotPerDayCriterion(),
		NewConflictPairCriterion(),
		NewWeekendOnlyCriterion(),
		NewForbidWeekendCriterion(),
		NewWorkloadCriterion(),
		NewLocationRotationCriterion(),
	}
}

// IsCandidateValid returns true only if every criterion accepts the worker for the slot
func IsCandidateValid(state *AllocationState, slot *Slot, worker *Worker, criteria []Criterion) bool {
	for _, criterion := range criteria {
		if !criterion.IsCandidateValid(state, slot, worker) {
			return false
		}
	}
	return true
}

// CalculatePenalty sums the penalties of all criteria plus the built-in window load term
func CalculatePenalty(state *AllocationState, slot *Slot, worker *Worker, criteria []Criterion) int {
	penalty := state.TotalCount(worker.ID) * WeightWindowTotal
	for _, criterion := range criteria {
		penalty += criterion.CalculatePenalty(state, slot, worker)
	}
	return penalty
}

// ValidateRotaState runs every criterion's check over the finished rota.
// An empty result means no invariant is broken.
func ValidateRotaState(state *AllocationState, criteria []Criterion) []SlotValidationError {
	var violations []SlotValidationError
	for _, criterion := range criteria {
		violations = append(violations, criterion.ValidateRotaState(state)...)
	}
	return violations
}

// filledDecisions returns the decisions that carry a worker
func filledDecisions(state *AllocationState) []Decision {
	var filled []Decision
	for _, d := range state.Decisions {
		if !d.IsOpen() {
			filled = append(filled, d)
		}
	}
	return filled
}
