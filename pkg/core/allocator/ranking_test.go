package allocator

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func workerIDs(workers []*Worker) []string {
	ids := make([]string, len(workers))
	for i, w := range workers {
		ids[i] = w.ID
	}
	return ids
}

func TestRankCandidates_NameOrderOnTies(t *testing.T) {
	state := newTestState(t, twoHallConfig("Carol", "Alice", "Bob"))
	slot := testSlot(state, 0, "hall-a", false)

	ranked := RankCandidates(state, slot, state.Workers, DefaultCriteria(), nil)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, workerIDs(ranked))
}

func TestRankCandidates_PreferredFirst(t *testing.T) {
	config := twoHallConfig("Alice", "Bob", "Carol")
	config.Eligibility = map[EligibilityKey]Eligibility{
		{WorkerID: "Carol", LocationID: "hall-a"}: {Allowed: true, Preferred: true},
	}
	state := newTestState(t, config)
	slot := testSlot(state, 0, "hall-a", false)

	ranked := RankCandidates(state, slot, state.Workers, DefaultCriteria(), nil)
	assert.Equal(t, "Carol", ranked[0].ID)
}

func TestRankCandidates_ComfortableSubset(t *testing.T) {
	state := newTestState(t, twoHallConfig("Alice", "Bob"))
	state.recordPlacement("Alice", "hall-b", 0)
	state.recordPlacement("Alice", "hall-b", 1)
	slot := testSlot(state, 2, "hall-a", false)

	ranked := RankCandidates(state, slot, state.Workers, DefaultCriteria(), nil)
	assert.Equal(t, []string{"Bob"}, workerIDs(ranked))
}

func TestRankCandidates_FallsBackToWholePool(t *testing.T) {
	state := newTestState(t, twoHallConfig("Alice", "Bob"))
	for _, id := range []string{"Alice", "Bob"} {
		state.recordPlacement(id, "hall-b", 0)
		state.recordPlacement(id, "hall-b", 1)
	}
	state.recordPlacement("Bob", "hall-a", 3)
	slot := testSlot(state, 2, "hall-a", false)

	ranked := RankCandidates(state, slot, state.Workers, DefaultCriteria(), nil)
	// Both are over the streak target; Bob's run would reach four days
	assert.Equal(t, []string{"Alice", "Bob"}, workerIDs(ranked))
}

func TestRankCandidates_SeededShuffleIsReproducible(t *testing.T) {
	names := []string{"Alice", "Bob", "Carol", "Dan", "Eve", "Fay"}
	state := newTestState(t, twoHallConfig(names...))
	slot := testSlot(state, 0, "hall-a", false)

	first := RankCandidates(state, slot, state.Workers, DefaultCriteria(), rand.New(rand.NewPCG(7, 11)))
	second := RankCandidates(state, slot, state.Workers, DefaultCriteria(), rand.New(rand.NewPCG(7, 11)))

	assert.Equal(t, workerIDs(first), workerIDs(second))
	assert.ElementsMatch(t, names, workerIDs(first))
}
