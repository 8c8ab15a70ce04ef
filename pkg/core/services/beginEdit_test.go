package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/db"
)

func beginEdit(t *testing.T, store *memStore) *BeginEditResult {
	t.Helper()
	result, err := BeginEdit(context.Background(), store, store, newLocker(), testConfig(), zap.NewNop(), windowMonday, 0)
	require.NoError(t, err)
	return result
}

func TestBeginEdit_EmptyWindowGeneratesDrafts(t *testing.T) {
	store := newFixtureStore()

	result := beginEdit(t, store)

	require.NotNil(t, result.Generated)
	assert.Equal(t, expectedSlots, result.Generated.InsertedDrafts)
	assert.Len(t, store.rows(model.StatusDraft), expectedSlots)
}

func TestBeginEdit_UnpublishedWindowKeepsDrafts(t *testing.T) {
	store := newFixtureStore()
	drafts := []db.Shift{
		shift("2025-03-03", "hall-1", "w-01", model.StatusDraft),
		shift("2025-03-04", "hall-1", "w-02", model.StatusDraft),
	}
	store.shifts = append(store.shifts, drafts...)

	result := beginEdit(t, store)

	assert.Nil(t, result.Generated)
	assert.Equal(t, 2, result.KeptDrafts)
	assert.Equal(t, drafts, store.rows(model.StatusDraft))
}

func TestBeginEdit_ClonesPublishedOverDrafts(t *testing.T) {
	store := newFixtureStore()
	published := []db.Shift{
		shift("2025-03-03", "hall-1", "w-01", model.StatusPublished),
		shift("2025-03-03", "hall-2", "", model.StatusPublished),
		shift("2025-03-10", "hall-1", "w-04", model.StatusPublished),
	}
	store.shifts = append(store.shifts, published...)
	store.shifts = append(store.shifts,
		shift("2025-03-03", "hall-1", "w-09", model.StatusDraft),
		// Drafts outside the window are untouched
		shift("2025-03-17", "hall-1", "w-09", model.StatusDraft),
	)

	result := beginEdit(t, store)

	assert.Equal(t, 1, result.DeletedDrafts)
	assert.Equal(t, 3, result.ClonedShifts)

	drafts := store.rows(model.StatusDraft)
	require.Len(t, drafts, 4)
	assert.Equal(t, slotKeys(published), slotKeys(drafts[:3]))
	assert.Equal(t, "2025-03-17", drafts[3].ShiftDate)
	for _, d := range drafts[:3] {
		assert.NotContains(t, []string{published[0].ID, published[1].ID, published[2].ID}, d.ID)
	}
	assert.Equal(t, published, store.rows(model.StatusPublished))
}

func TestLifecycle_RoundTrip(t *testing.T) {
	store := newFixtureStore()
	ctx := context.Background()
	cfg := testConfig()
	logger := zap.NewNop()

	generate(t, store, GenerateOptions{})
	_, err := PublishRota(ctx, store, store, newLocker(), cfg, logger, windowMonday, 0, nil)
	require.NoError(t, err)
	before := slotKeys(store.rows(model.StatusPublished))
	require.Len(t, before, expectedSlots)

	beginEdit(t, store)
	_, err = PublishRota(ctx, store, store, newLocker(), cfg, logger, windowMonday, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, before, slotKeys(store.rows(model.StatusPublished)))
	assert.Empty(t, store.rows(model.StatusDraft))
}
