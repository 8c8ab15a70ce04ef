package db

import "github.com/jakechorley/venue-rota/pkg/core/model"

// Shift represents a database shift record: one location on one date in one lifecycle status
type Shift struct {
	ID         string
	ShiftDate  string // Format: "2006-01-02"
	LocationID string
	WorkerID   string // Empty string for an open slot
	Status     model.Status
}

// IsOpen reports whether nobody is assigned to the shift
func (s Shift) IsOpen() bool {
	return s.WorkerID == ""
}

// Key identifies the slot a shift row occupies, independent of status
func (s Shift) Key() ShiftKey {
	return ShiftKey{ShiftDate: s.ShiftDate, LocationID: s.LocationID}
}

// ShiftKey is the (date, location) pair that the uniqueness constraint is scoped by, per status
type ShiftKey struct {
	ShiftDate  string
	LocationID string
}
