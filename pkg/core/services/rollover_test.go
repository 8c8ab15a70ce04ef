package services

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/db"
)

func rolloverFixture() *memStore {
	store := newFixtureStore()
	store.shifts = []db.Shift{
		shift("2025-03-03", "hall-1", "w-01", model.StatusPublished),
		shift("2025-03-09", "hall-2", "", model.StatusPublished),
		shift("2025-03-04", "hall-1", "w-05", model.StatusDraft),
		shift("2025-03-10", "hall-1", "w-02", model.StatusPublished),
		shift("2025-03-10", "hall-1", "w-03", model.StatusDraft),
	}
	return store
}

func TestRollover_ArchivesPriorWeek(t *testing.T) {
	store := rolloverFixture()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	result, err := Rollover(context.Background(), store, newLocker(), testConfig(), zap.NewNop(), now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 9, 22, 0, 0, 0, time.UTC), result.Boundary.UTC())
	assert.Equal(t, "2025-03-03", result.WeekStart.Format(dateLayout))
	assert.Equal(t, 2, result.Archived)
	assert.Equal(t, 1, result.DiscardedDrafts)
	assert.False(t, result.NoOp())

	assert.Equal(t, []slotKey{
		{"2025-03-03", "hall-1", "w-01"},
		{"2025-03-09", "hall-2", ""},
	}, slotKeys(store.rows(model.StatusArchived)))
	assert.Equal(t, []slotKey{{"2025-03-10", "hall-1", "w-02"}}, slotKeys(store.rows(model.StatusPublished)))
	assert.Equal(t, []slotKey{{"2025-03-10", "hall-1", "w-03"}}, slotKeys(store.rows(model.StatusDraft)))
}

func TestRollover_IsIdempotent(t *testing.T) {
	store := rolloverFixture()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	_, err := Rollover(ctx, store, newLocker(), testConfig(), zap.NewNop(), now)
	require.NoError(t, err)
	after := append([]db.Shift(nil), store.shifts...)

	result, err := Rollover(ctx, store, newLocker(), testConfig(), zap.NewNop(), now.Add(6*time.Hour))
	require.NoError(t, err)

	assert.True(t, result.NoOp())
	assert.ElementsMatch(t, after, store.shifts)
}

func TestRollover_BeforeBoundaryTargetsEarlierWeek(t *testing.T) {
	store := rolloverFixture()
	now := time.Date(2025, 3, 9, 21, 59, 0, 0, time.UTC)

	result, err := Rollover(context.Background(), store, newLocker(), testConfig(), zap.NewNop(), now)
	require.NoError(t, err)

	assert.Equal(t, "2025-02-24", result.WeekStart.Format(dateLayout))
	assert.True(t, result.NoOp())
	assert.Empty(t, store.rows(model.StatusArchived))
}

func TestRollover_UsesConfiguredTimezone(t *testing.T) {
	store := rolloverFixture()
	cfg := testConfig()
	cfg.Rollover.Timezone = "America/New_York"

	// 22:30 on Sunday in New York is already Monday in UTC
	now := time.Date(2025, 3, 10, 2, 30, 0, 0, time.UTC)

	result, err := Rollover(context.Background(), store, newLocker(), cfg, zap.NewNop(), now)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-03", result.WeekStart.Format(dateLayout))
	assert.Equal(t, 2, result.Archived)

	// Half an hour earlier the boundary has not passed yet
	store = rolloverFixture()
	result, err = Rollover(context.Background(), store, newLocker(), cfg, zap.NewNop(), now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2025-02-24", result.WeekStart.Format(dateLayout))
}

func TestRollover_ReplacesStaleArchive(t *testing.T) {
	store := rolloverFixture()
	store.shifts = append(store.shifts, shift("2025-03-03", "hall-1", "w-08", model.StatusArchived))

	result, err := Rollover(context.Background(), store, newLocker(), testConfig(), zap.NewNop(),
		time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 1, result.ReplacedArchived)
	assert.Equal(t, "w-01", store.rows(model.StatusArchived)[0].WorkerID)
}

func TestRollover_ArchivesWeeksMissedByEarlierRuns(t *testing.T) {
	store := rolloverFixture()
	store.shifts = append(store.shifts,
		shift("2025-02-17", "hall-1", "w-04", model.StatusPublished),
		shift("2025-02-18", "hall-1", "w-06", model.StatusDraft),
		shift("2025-02-24", "hall-2", "w-07", model.StatusArchived),
	)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	result, err := Rollover(ctx, store, newLocker(), testConfig(), zap.NewNop(), now)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-03", result.WeekStart.Format(dateLayout))
	require.Len(t, result.CaughtUpWeeks, 1)
	assert.Equal(t, "2025-02-17", result.CaughtUpWeeks[0].Format(dateLayout))
	assert.Equal(t, 3, result.Archived)
	assert.Equal(t, 0, result.ReplacedArchived)
	assert.Equal(t, 2, result.DiscardedDrafts)

	// The week in between had nothing published, so its archive is untouched
	assert.Equal(t, []slotKey{
		{"2025-02-17", "hall-1", "w-04"},
		{"2025-02-24", "hall-2", "w-07"},
		{"2025-03-03", "hall-1", "w-01"},
		{"2025-03-09", "hall-2", ""},
	}, slotKeys(store.rows(model.StatusArchived)))
	assert.Equal(t, []slotKey{{"2025-03-10", "hall-1", "w-02"}}, slotKeys(store.rows(model.StatusPublished)))

	again, err := Rollover(ctx, store, newLocker(), testConfig(), zap.NewNop(), now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, again.NoOp())
	assert.Empty(t, again.CaughtUpWeeks)
}

func TestRollover_InvalidRule(t *testing.T) {
	cfg := testConfig()
	cfg.Rollover.RRule = "FREQ=SOMETIMES"

	_, err := Rollover(context.Background(), newFixtureStore(), newLocker(), cfg, zap.NewNop(), time.Now())
	assert.Error(t, err)
}

func TestRolloverWatcher_RunsUntilCancelled(t *testing.T) {
	store := rolloverFixture()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	watcher := &RolloverWatcher{
		ShiftStore: store,
		Locker:     newLocker(),
		Config:     testConfig(),
		Logger:     zap.NewNop(),
		Interval:   10 * time.Millisecond,
		Now: func() time.Time {
			return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		},
	}

	err := watcher.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, store.rows(model.StatusArchived), 2)
}
