package allocator

import (
	"fmt"
	"sort"
)

// WorkloadCriterion limits and balances how often each worker is placed.
//
// Validity:
//   - Returns false if the worker has reached the hard weekly cap
//   - Returns false if the worker's consecutive-day run has reached the hard streak cap
//
// Penalty:
//   - WeightUnderWeekTarget per day below the soft weekly target
//   - WeightOverWeekTarget per day at or above the soft weekly target
//   - WeightOverStreakTarget per day at or above the soft streak target
type WorkloadCriterion struct{}

// NewWorkloadCriterion creates a new WorkloadCriterion
func NewWorkloadCriterion() *WorkloadCriterion {
	return &WorkloadCriterion{}
}

func (c *WorkloadCriterion) Name() string {
	return "Workload"
}

func (c *WorkloadCriterion) IsCandidateValid(state *AllocationState, slot *Slot, worker *Worker) bool {
	if state.WeekCount(worker.ID, slot.WeekIndex) >= state.Limits.HardWeekCap {
		return false
	}
	return state.Streak(worker.ID, slot.DayIndex) < state.Limits.HardStreakCap
}

func (c *WorkloadCriterion) CalculatePenalty(state *AllocationState, slot *Slot, worker *Worker) int {
	limits := state.Limits
	weekCount := state.WeekCount(worker.ID, slot.WeekIndex)
	streak := state.Streak(worker.ID, slot.DayIndex)

	penalty := 0
	if under := limits.SoftWeekTarget - weekCount; under > 0 {
		penalty += under * WeightUnderWeekTarget
	}
	if weekCount >= limits.SoftWeekTarget {
		penalty += (weekCount - limits.SoftWeekTarget + 1) * WeightOverWeekTarget
	}
	if streak >= limits.SoftStreakTarget {
		penalty += (streak - limits.SoftStreakTarget + 1) * WeightOverStreakTarget
	}
	return penalty
}

func (c *WorkloadCriterion) ValidateRotaState(state *AllocationState) []SlotValidationError {
	var errors []SlotValidationError

	weekCounts := make(map[workerWeek]int)
	workedDays := make(map[string]map[int]bool)
	lastDate := make(map[workerWeek]string)

	for _, d := range filledDecisions(state) {
		key := workerWeek{workerID: d.WorkerID, week: WeekIndex(d.DayIndex)}
		weekCounts[key]++
		lastDate[key] = d.Date

		if workedDays[d.WorkerID] == nil {
			workedDays[d.WorkerID] = make(map[int]bool)
		}
		workedDays[d.WorkerID][d.DayIndex] = true
	}

	for key, count := range weekCounts {
		if count > state.Limits.HardWeekCap {
			errors = append(errors, SlotValidationError{
				Date:          lastDate[key],
				WorkerID:      key.workerID,
				CriterionName: c.Name(),
				Description: fmt.Sprintf("Worker '%s' is placed %d times in week %d (cap %d)",
					key.workerID, count, key.week+1, state.Limits.HardWeekCap),
			})
		}
	}

	for workerID, days := range workedDays {
		for day := range state.history[workerID] {
			days[day] = true
		}

		indices := make([]int, 0, len(days))
		for day := range days {
			indices = append(indices, day)
		}
		sort.Ints(indices)

		run := 0
		reported := false
		for i, day := range indices {
			if i > 0 && day == indices[i-1]+1 {
				run++
			} else {
				run = 1
				reported = false
			}
			if run > state.Limits.HardStreakCap && day >= 0 && !reported {
				reported = true
				errors = append(errors, SlotValidationError{
					Date:          state.Dates[day].Format(DateLayout),
					WorkerID:      workerID,
					CriterionName: c.Name(),
					Description: fmt.Sprintf("Worker '%s' works more than %d consecutive days",
						workerID, state.Limits.HardStreakCap),
				})
			}
		}
	}

	return errors
}
