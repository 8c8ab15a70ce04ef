package allocator

// Ranking penalty weights. The candidate with the lowest total penalty is chosen.
const (
	// WeightPreferred is applied when the worker prefers the location
	WeightPreferred = -40

	// WeightUnderWeekTarget is applied per day the worker is below the soft weekly target,
	// pulling under-used workers forward
	WeightUnderWeekTarget = -25

	// WeightOverWeekTarget is applied per day at or above the soft weekly target
	WeightOverWeekTarget = 30

	// WeightOverStreakTarget is applied per day at or above the soft streak target
	WeightOverStreakTarget = 35

	// WeightRepeatLocation is applied when the worker already covers the location this week
	WeightRepeatLocation = 50

	// WeightWindowTotal is applied per day already placed in the window
	WeightWindowTotal = 1
)
