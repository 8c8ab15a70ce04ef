package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/venue-rota/pkg/core/model"
)

type mockRosterStore struct {
	workers     []model.Worker
	locations   []model.Location
	settings    []model.EligibilitySetting
	workersErr  error
	settingsErr error
}

func (m *mockRosterStore) GetWorkers(ctx context.Context) ([]model.Worker, error) {
	return m.workers, m.workersErr
}

func (m *mockRosterStore) GetLocations(ctx context.Context) ([]model.Location, error) {
	return m.locations, nil
}

func (m *mockRosterStore) GetEligibilitySettings(ctx context.Context) ([]model.EligibilitySetting, error) {
	return m.settings, m.settingsErr
}

func fixtureStore() *mockRosterStore {
	return &mockRosterStore{
		workers: []model.Worker{
			{ID: "w-zoe", Name: "Zoe", IsActive: true},
			{ID: "w-amy", Name: "Amy", IsActive: true},
			{ID: "w-hal", Name: "Hal", IsActive: true, IsHelper: true},
			{ID: "w-sam", Name: "Sam", IsActive: true, OnSickLeave: true},
			{ID: "w-old", Name: "Old", IsActive: false},
			{ID: "w-wes", Name: "Wes", IsActive: true},
			{ID: "w-ina", Name: "Ina", IsActive: true},
		},
		locations: []model.Location{
			{ID: "l-park", Name: "WeekendHall", Zone: "south", DisplayOrder: 3, IsActive: true},
			{ID: "l-main", Name: "Main Hall", Zone: "north", DisplayOrder: 1, IsActive: true},
			{ID: "l-shut", Name: "Annex", Zone: "north", DisplayOrder: 2, IsActive: false},
		},
		settings: []model.EligibilitySetting{
			{WorkerID: "w-wes", LocationID: "l-park", IsAllowed: true},
			{WorkerID: "w-wes", LocationID: "l-main", IsAllowed: false},
			// Ina's only weekday setting is on an inactive location
			{WorkerID: "w-ina", LocationID: "l-park", IsAllowed: true, IsPreferred: true},
			{WorkerID: "w-ina", LocationID: "l-shut", IsAllowed: true},
			{WorkerID: "w-amy", LocationID: "l-main", IsAllowed: true, IsPreferred: true},
		},
	}
}

func TestLoad(t *testing.T) {
	r, err := Load(context.Background(), fixtureStore(), []string{"weekendhall"})
	require.NoError(t, err)

	var names []string
	for _, w := range r.Workers {
		names = append(names, w.Name)
	}
	assert.Equal(t, []string{"Amy", "Ina", "Wes", "Zoe"}, names)

	require.Len(t, r.Locations, 2)
	assert.Equal(t, "l-main", r.Locations[0].ID)
	assert.Equal(t, "l-park", r.Locations[1].ID)

	assert.Equal(t, map[string]bool{"l-park": true}, r.WeekendOnlyLocations)
	assert.Equal(t, map[string]bool{"w-wes": true, "w-ina": true}, r.WeekendOnlyWorkers)

	s, ok := r.Setting("w-amy", "l-main")
	require.True(t, ok)
	assert.True(t, s.IsPreferred)

	_, ok = r.Setting("w-zoe", "l-main")
	assert.False(t, ok)
}

func TestLoad_WorkerWithoutSettingsIsNotWeekendOnly(t *testing.T) {
	r, err := Load(context.Background(), fixtureStore(), []string{"WeekendHall"})
	require.NoError(t, err)
	assert.False(t, r.WeekendOnlyWorkers["w-zoe"])
	assert.False(t, r.WeekendOnlyWorkers["w-amy"])
}

func TestLoad_PropagatesStoreErrors(t *testing.T) {
	store := fixtureStore()
	store.workersErr = errors.New("connection reset")

	_, err := Load(context.Background(), store, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.workersErr)

	store = fixtureStore()
	store.settingsErr = errors.New("timeout")
	_, err = Load(context.Background(), store, nil)
	assert.ErrorIs(t, err, store.settingsErr)
}

func TestRoster_Lookups(t *testing.T) {
	r, err := Load(context.Background(), fixtureStore(), nil)
	require.NoError(t, err)

	id, ok := r.WorkerIDByName("hal")
	assert.True(t, ok, "non-schedulable workers still resolve")
	assert.Equal(t, "w-hal", id)

	_, ok = r.LocationIDByName("Annex")
	assert.False(t, ok, "inactive locations do not resolve")

	id, ok = r.LocationIDByName("main hall")
	assert.True(t, ok)
	assert.Equal(t, "l-main", id)

	assert.Equal(t, map[string]int{"l-main": 0, "l-park": 1}, r.LocationOrder())
	assert.Equal(t, "Old", r.WorkerNames()["w-old"])
}
