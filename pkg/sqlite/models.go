package sqlite

import (
	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/db"
)

type workerRecord struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null;index"`
	IsHelper    bool   `gorm:"not null"`
	OnSickLeave bool   `gorm:"not null"`
	IsActive    bool   `gorm:"not null"`
}

func (workerRecord) TableName() string { return "workers" }

type locationRecord struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Zone         string `gorm:"not null"`
	DisplayOrder int    `gorm:"not null"`
	IsActive     bool   `gorm:"not null"`
}

func (locationRecord) TableName() string { return "locations" }

type eligibilityRecord struct {
	WorkerID    string `gorm:"primaryKey"`
	LocationID  string `gorm:"primaryKey"`
	IsAllowed   bool   `gorm:"not null"`
	IsPreferred bool   `gorm:"not null"`
}

func (eligibilityRecord) TableName() string { return "eligibility_settings" }

// shiftRecord holds one row per (date, location, status). An open slot has a nil WorkerID.
type shiftRecord struct {
	ID         string  `gorm:"primaryKey"`
	ShiftDate  string  `gorm:"not null;uniqueIndex:uix_shifts_date_location_status,priority:1;index:idx_shifts_status_date,priority:2"`
	LocationID string  `gorm:"not null;uniqueIndex:uix_shifts_date_location_status,priority:2"`
	WorkerID   *string
	Status     string  `gorm:"not null;uniqueIndex:uix_shifts_date_location_status,priority:3;index:idx_shifts_status_date,priority:1"`
}

func (shiftRecord) TableName() string { return "shifts" }

func (r workerRecord) toModel() model.Worker {
	return model.Worker{
		ID:          r.ID,
		Name:        r.Name,
		IsHelper:    r.IsHelper,
		OnSickLeave: r.OnSickLeave,
		IsActive:    r.IsActive,
	}
}

func (r locationRecord) toModel() model.Location {
	return model.Location{
		ID:           r.ID,
		Name:         r.Name,
		Zone:         r.Zone,
		DisplayOrder: r.DisplayOrder,
		IsActive:     r.IsActive,
	}
}

func (r eligibilityRecord) toModel() model.EligibilitySetting {
	return model.EligibilitySetting{
		WorkerID:    r.WorkerID,
		LocationID:  r.LocationID,
		IsAllowed:   r.IsAllowed,
		IsPreferred: r.IsPreferred,
	}
}

func (r shiftRecord) toShift() db.Shift {
	s := db.Shift{
		ID:         r.ID,
		ShiftDate:  r.ShiftDate,
		LocationID: r.LocationID,
		Status:     model.Status(r.Status),
	}
	if r.WorkerID != nil {
		s.WorkerID = *r.WorkerID
	}
	return s
}

func fromShift(s db.Shift) shiftRecord {
	r := shiftRecord{
		ID:         s.ID,
		ShiftDate:  s.ShiftDate,
		LocationID: s.LocationID,
		Status:     string(s.Status),
	}
	if !s.IsOpen() {
		workerID := s.WorkerID
		r.WorkerID = &workerID
	}
	return r
}
