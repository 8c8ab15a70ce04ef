package allocator

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is 2025-03-03
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func windowDates(start time.Time, days int) []time.Time {
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func namedWorkers(names ...string) []Worker {
	workers := make([]Worker, len(names))
	for i, name := range names {
		workers[i] = Worker{ID: name, Name: name}
	}
	return workers
}

func newTestState(t *testing.T, config AllocationConfig) *AllocationState {
	t.Helper()
	a, err := InitAllocation(config)
	require.NoError(t, err)
	return a.state
}

func testSlot(state *AllocationState, dayIndex int, locationID string, preferredPass bool) *Slot {
	return &Slot{
		Date:          state.Dates[dayIndex],
		DayIndex:      dayIndex,
		WeekIndex:     WeekIndex(dayIndex),
		Location:      state.LocationByID(locationID),
		PreferredPass: preferredPass,
	}
}

func decisionAt(t *testing.T, outcome *AllocationOutcome, date time.Time, locationID string) Decision {
	t.Helper()
	dateStr := date.Format(DateLayout)
	for _, d := range outcome.Decisions {
		if d.Date == dateStr && d.LocationID == locationID {
			return d
		}
	}
	require.Failf(t, "decision not found", "%s at %s", locationID, dateStr)
	return Decision{}
}

// assertRotaInvariants checks the hard invariants directly from the decisions
func assertRotaInvariants(t *testing.T, config AllocationConfig, outcome *AllocationOutcome) {
	t.Helper()

	limits := config.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}

	locations := make(map[string]Location)
	for _, l := range config.Locations {
		locations[l.ID] = l
	}
	workers := make(map[string]Worker)
	for _, w := range config.Workers {
		workers[w.ID] = w
	}

	perDay := make(map[string]map[string]int)
	perWeek := make(map[string]map[int]int)
	worked := make(map[string][]int)
	zones := make(map[string]map[string]map[string]bool)

	for _, d := range outcome.Decisions {
		date, err := time.Parse(DateLayout, d.Date)
		require.NoError(t, err)
		loc := locations[d.LocationID]

		if loc.WeekendOnly {
			assert.True(t, IsWeekend(date), "weekend-only location %s offered on %s", loc.ID, d.Date)
		}
		if d.IsOpen() {
			continue
		}

		if workers[d.WorkerID].WeekendOnly {
			assert.True(t, IsWeekend(date), "weekend-only worker %s placed on %s", d.WorkerID, d.Date)
		}

		if perDay[d.WorkerID] == nil {
			perDay[d.WorkerID] = make(map[string]int)
			perWeek[d.WorkerID] = make(map[int]int)
		}
		perDay[d.WorkerID][d.Date]++
		perWeek[d.WorkerID][WeekIndex(d.DayIndex)]++
		worked[d.WorkerID] = append(worked[d.WorkerID], d.DayIndex)

		if zones[d.Date] == nil {
			zones[d.Date] = make(map[string]map[string]bool)
		}
		if zones[d.Date][loc.Zone] == nil {
			zones[d.Date][loc.Zone] = make(map[string]bool)
		}
		zones[d.Date][loc.Zone][d.WorkerID] = true
	}

	for workerID, days := range perDay {
		for date, count := range days {
			assert.LessOrEqual(t, count, 1, "worker %s holds %d slots on %s", workerID, count, date)
		}
		for week, count := range perWeek[workerID] {
			assert.LessOrEqual(t, count, limits.HardWeekCap, "worker %s works %d days in week %d", workerID, count, week)
		}

		indices := worked[workerID]
		sort.Ints(indices)
		run := 0
		for i, day := range indices {
			if i > 0 && day == indices[i-1]+1 {
				run++
			} else {
				run = 1
			}
			assert.LessOrEqual(t, run, limits.HardStreakCap, "worker %s has a run of %d ending day %d", workerID, run, day)
		}
	}

	for date, byZone := range zones {
		for zone, present := range byZone {
			for _, pair := range config.ConflictPairs {
				assert.False(t, present[pair[0]] && present[pair[1]],
					"conflict pair %v shares zone %s on %s", pair, zone, date)
			}
		}
	}
}

func describe(decisions []Decision) []string {
	out := make([]string, len(decisions))
	for i, d := range decisions {
		out[i] = fmt.Sprintf("%s/%s=%s", d.Date, d.LocationID, d.WorkerID)
	}
	return out
}
