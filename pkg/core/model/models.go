package model

// Status is the lifecycle state of a shift row
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Worker represents a member of staff
type Worker struct {
	ID          string
	Name        string
	IsHelper    bool
	OnSickLeave bool
	IsActive    bool
}

// Schedulable reports whether the worker takes part in allocation
func (w Worker) Schedulable() bool {
	return w.IsActive && !w.IsHelper && !w.OnSickLeave
}

// Location represents a slot-type: a place that needs one worker per day it is offered
type Location struct {
	ID           string
	Name         string
	Zone         string
	DisplayOrder int
	IsActive     bool
}

// EligibilitySetting records whether a worker may, and should, work a location
type EligibilitySetting struct {
	WorkerID    string
	LocationID  string
	IsAllowed   bool
	IsPreferred bool
}
