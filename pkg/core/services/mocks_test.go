package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/db"
	"github.com/jakechorley/venue-rota/pkg/windowlock"
)

// memStore implements db.RosterStore and db.ShiftStore in memory.
// Each transaction works on a copy of the rows that replaces them on success.
type memStore struct {
	mu sync.Mutex

	workers   []model.Worker
	locations []model.Location
	settings  []model.EligibilitySetting
	shifts    []db.Shift

	lockedWindows []string
	insertErr     error
	getWorkersErr error
}

func (m *memStore) GetWorkers(ctx context.Context) ([]model.Worker, error) {
	if m.getWorkersErr != nil {
		return nil, m.getWorkersErr
	}
	return append([]model.Worker(nil), m.workers...), nil
}

func (m *memStore) GetLocations(ctx context.Context) ([]model.Location, error) {
	var active []model.Location
	for _, l := range m.locations {
		if l.IsActive {
			active = append(active, l)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].DisplayOrder < active[j].DisplayOrder
	})
	return active, nil
}

func (m *memStore) GetEligibilitySettings(ctx context.Context) ([]model.EligibilitySetting, error) {
	return m.settings, nil
}

func (m *memStore) InTx(ctx context.Context, fn func(tx db.ShiftTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{store: m, shifts: append([]db.Shift(nil), m.shifts...)}
	if err := fn(tx); err != nil {
		return err
	}
	m.shifts = tx.shifts
	return nil
}

// rows returns the committed rows in a status, ordered by date then location
func (m *memStore) rows(status model.Status) []db.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []db.Shift
	for _, s := range m.shifts {
		if s.Status == status {
			out = append(out, s)
		}
	}
	sortByDateLocation(out)
	return out
}

type memTx struct {
	store  *memStore
	shifts []db.Shift
}

func inRange(s db.Shift, from, to time.Time) bool {
	return s.ShiftDate >= from.Format(dateLayout) && s.ShiftDate <= to.Format(dateLayout)
}

func (t *memTx) LockWindow(ctx context.Context, from, to time.Time) error {
	t.store.lockedWindows = append(t.store.lockedWindows, from.Format(dateLayout)+".."+to.Format(dateLayout))
	return nil
}

func (t *memTx) GetShifts(ctx context.Context, from, to time.Time, status model.Status) ([]db.Shift, error) {
	var out []db.Shift
	for _, s := range t.shifts {
		if s.Status == status && inRange(s, from, to) {
			out = append(out, s)
		}
	}
	sortByDateLocation(out)
	return out, nil
}

func (t *memTx) DeleteShifts(ctx context.Context, from, to time.Time, status model.Status) (int, error) {
	kept := t.shifts[:0:0]
	deleted := 0
	for _, s := range t.shifts {
		if s.Status == status && inRange(s, from, to) {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	t.shifts = kept
	return deleted, nil
}

func (t *memTx) InsertShifts(ctx context.Context, shifts []db.Shift) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	t.shifts = append(t.shifts, shifts...)
	return t.checkUnique()
}

func (t *memTx) UpdateShiftStatus(ctx context.Context, from, to time.Time, fromStatus, toStatus model.Status) (int, error) {
	updated := 0
	for i, s := range t.shifts {
		if s.Status == fromStatus && inRange(s, from, to) {
			t.shifts[i].Status = toStatus
			updated++
		}
	}
	return updated, t.checkUnique()
}

func (t *memTx) checkUnique() error {
	if dups := db.FindDuplicateKeys(t.shifts); len(dups) > 0 {
		return fmt.Errorf("%w: %v", db.ErrConflict, dups[0])
	}
	return nil
}

func sortByDateLocation(shifts []db.Shift) {
	sort.SliceStable(shifts, func(i, j int) bool {
		if shifts[i].ShiftDate != shifts[j].ShiftDate {
			return shifts[i].ShiftDate < shifts[j].ShiftDate
		}
		return shifts[i].LocationID < shifts[j].LocationID
	})
}

// windowMonday is 2025-03-03
const windowMonday = "2025-03-03"

// newFixtureStore has ten workers, five daily halls and one weekend-only hall
func newFixtureStore() *memStore {
	store := &memStore{}
	for i := 1; i <= 10; i++ {
		store.workers = append(store.workers, model.Worker{
			ID:       fmt.Sprintf("w-%02d", i),
			Name:     fmt.Sprintf("Worker %02d", i),
			IsActive: true,
		})
	}
	zones := []string{"north", "south"}
	for i := 1; i <= 5; i++ {
		store.locations = append(store.locations, model.Location{
			ID:           fmt.Sprintf("hall-%d", i),
			Name:         fmt.Sprintf("Hall %d", i),
			Zone:         zones[i%2],
			DisplayOrder: i,
			IsActive:     true,
		})
	}
	store.locations = append(store.locations, model.Location{
		ID: "weekend", Name: "WeekendHall", Zone: "park", DisplayOrder: 6, IsActive: true,
	})
	return store
}

// expectedSlots is the number of offered slots in a two-week fixture window
const expectedSlots = 5*14 + 4

func testConfig() *config.Config {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"},
		Rules: config.RulesConfig{
			WeekendOnlyLocations: []string{"WeekendHall"},
		},
		Rollover: config.RolloverConfig{
			RRule:    "FREQ=WEEKLY;BYDAY=SU;BYHOUR=22;BYMINUTE=0;BYSECOND=0",
			Timezone: "UTC",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func newLocker() windowlock.Locker {
	return windowlock.NewLocalLocker()
}

func shift(date, location, worker string, status model.Status) db.Shift {
	return db.Shift{
		ID:         fmt.Sprintf("%s/%s/%s", date, location, status),
		ShiftDate:  date,
		LocationID: location,
		WorkerID:   worker,
		Status:     status,
	}
}

// slotKey identifies a filled slot independent of row ID and status
type slotKey struct {
	date, location, worker string
}

func slotKeys(shifts []db.Shift) []slotKey {
	keys := make([]slotKey, len(shifts))
	for i, s := range shifts {
		keys[i] = slotKey{s.ShiftDate, s.LocationID, s.WorkerID}
	}
	return keys
}
