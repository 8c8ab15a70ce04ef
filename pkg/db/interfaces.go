package db

import (
	"context"
	"time"

	"github.com/jakechorley/venue-rota/pkg/core/model"
)

// RosterStore defines the read-only roster queries the allocator needs
type RosterStore interface {
	GetWorkers(ctx context.Context) ([]model.Worker, error)
	// GetLocations returns active locations ordered for display
	GetLocations(ctx context.Context) ([]model.Location, error)
	GetEligibilitySettings(ctx context.Context) ([]model.EligibilitySetting, error)
}

// RosterWriter makes the stored roster match an imported one. Records are upserted by ID;
// workers and locations missing from the import are marked inactive and missing settings are deleted.
type RosterWriter interface {
	SaveRoster(ctx context.Context, workers []model.Worker, locations []model.Location, settings []model.EligibilitySetting) error
}

// ShiftStore runs shift operations inside a single transaction.
// fn's error (or a failed commit) rolls everything back.
type ShiftStore interface {
	InTx(ctx context.Context, fn func(tx ShiftTx) error) error
}

// ShiftTx defines the shift operations available within a transaction.
// Date ranges are inclusive on both ends.
type ShiftTx interface {
	// LockWindow serialises concurrent runs touching the same weeks until the transaction ends
	LockWindow(ctx context.Context, from, to time.Time) error
	GetShifts(ctx context.Context, from, to time.Time, status model.Status) ([]Shift, error)
	DeleteShifts(ctx context.Context, from, to time.Time, status model.Status) (int, error)
	InsertShifts(ctx context.Context, shifts []Shift) error
	UpdateShiftStatus(ctx context.Context, from, to time.Time, fromStatus, toStatus model.Status) (int, error)
}

// Database is implemented by every storage backend
type Database interface {
	RosterStore
	ShiftStore
	Close() error
}
