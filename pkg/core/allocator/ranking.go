package allocator

import (
	"math/rand/v2"
	"sort"
)

// RankCandidates orders candidates for a slot by ranking penalty, lowest first.
//
// When at least one candidate is below both soft targets, only those candidates are ranked.
// Equal penalties keep pool order, which is name order unless rng shuffles the pool first.
func RankCandidates(state *AllocationState, slot *Slot, pool []*Worker, criteria []Criterion, rng *rand.Rand) []*Worker {
	candidates := comfortableCandidates(state, slot, pool)

	ranked := make([]*Worker, len(candidates))
	copy(ranked, candidates)
	if rng != nil {
		rng.Shuffle(len(ranked), func(i, j int) {
			ranked[i], ranked[j] = ranked[j], ranked[i]
		})
	}

	penalties := make(map[string]int, len(ranked))
	for _, worker := range ranked {
		penalties[worker.ID] = CalculatePenalty(state, slot, worker, criteria)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return penalties[ranked[i].ID] < penalties[ranked[j].ID]
	})

	return ranked
}

// comfortableCandidates narrows the pool to workers below the soft weekly and streak targets,
// falling back to the whole pool when nobody qualifies
func comfortableCandidates(state *AllocationState, slot *Slot, pool []*Worker) []*Worker {
	limits := state.Limits

	var comfortable []*Worker
	for _, worker := range pool {
		weekCount := state.WeekCount(worker.ID, slot.WeekIndex)
		if weekCount >= limits.SoftWeekTarget || weekCount >= limits.HardWeekCap {
			continue
		}
		if state.Streak(worker.ID, slot.DayIndex) >= limits.SoftStreakTarget {
			continue
		}
		comfortable = append(comfortable, worker)
	}

	if len(comfortable) == 0 {
		return pool
	}
	return comfortable
}
