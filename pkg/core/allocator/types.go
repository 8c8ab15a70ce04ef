package allocator

import "time"

// DateLayout is the layout used for every date the allocator reads or emits
const DateLayout = "2006-01-02"

// Worker is a member of staff the allocator may place into slots
type Worker struct {
	ID   string
	Name string

	// WeekendOnly is true when every location the worker is allowed at is weekend-only
	WeekendOnly bool
}

// Location is a slot-type that needs one worker on each day it is offered
type Location struct {
	ID           string
	Name         string
	Zone         string
	DisplayOrder int
	WeekendOnly  bool
}

// Eligibility is a worker's setting for one location
type Eligibility struct {
	Allowed   bool
	Preferred bool
}

// DefaultEligibility applies to any (worker, location) pair without a setting.
// Missing configuration never removes a worker from the pool.
var DefaultEligibility = Eligibility{Allowed: true, Preferred: false}

// EligibilityKey indexes eligibility settings
type EligibilityKey struct {
	WorkerID   string
	LocationID string
}

// Limits are the weekly and consecutive-day thresholds
type Limits struct {
	SoftWeekTarget   int
	HardWeekCap      int
	SoftStreakTarget int
	HardStreakCap    int
}

// DefaultLimits returns the standard limits: aim for 4 days a week and 2 in a row,
// never exceed 5 a week or 3 in a row
func DefaultLimits() Limits {
	return Limits{
		SoftWeekTarget:   4,
		HardWeekCap:      5,
		SoftStreakTarget: 2,
		HardStreakCap:    3,
	}
}

// ConflictPair names two workers who must never share a zone on the same day
type ConflictPair [2]string

// Partner returns the other worker of the pair, or "" if workerID is not in it
func (p ConflictPair) Partner(workerID string) string {
	switch workerID {
	case p[0]:
		return p[1]
	case p[1]:
		return p[0]
	}
	return ""
}

// RuleKind identifies the type of a special rule
type RuleKind string

const (
	// RuleMasterOnce places one worker into one location once per week, on a weekend day
	RuleMasterOnce RuleKind = "masterOnce"
	// RuleRotationOnce places a worker once per week, on a weekend day, into any location of a set
	RuleRotationOnce RuleKind = "rotationOnce"
	// RuleForbidWeekend keeps a worker out of a set of locations on weekends
	RuleForbidWeekend RuleKind = "forbidWeekend"
)

// SpecialRule is a named per-worker exception. MasterOnce rules carry exactly one location.
type SpecialRule struct {
	Kind        RuleKind
	WorkerID    string
	LocationIDs []string
}

// Covers reports whether the rule applies to the location
func (r SpecialRule) Covers(locationID string) bool {
	for _, id := range r.LocationIDs {
		if id == locationID {
			return true
		}
	}
	return false
}

// IsQuotaRule reports whether the rule is satisfied by a weekly placement
func (r SpecialRule) IsQuotaRule() bool {
	return r.Kind == RuleMasterOnce || r.Kind == RuleRotationOnce
}

// Assignment is an existing worker placement fed into the allocator
type Assignment struct {
	Date       string
	LocationID string
	WorkerID   string // Empty for an open slot
}

// DecisionReason records how a slot was resolved
type DecisionReason string

const (
	ReasonFrozen      DecisionReason = "frozen"
	ReasonSpecialRule DecisionReason = "specialRule"
	ReasonScored      DecisionReason = "scored"
	ReasonOpen        DecisionReason = "open"
)

// Decision is the outcome for one location on one date
type Decision struct {
	Date       string
	DayIndex   int
	LocationID string
	WorkerID   string // Empty when no candidate survived the hard constraints
	Reason     DecisionReason
}

// IsOpen reports whether the slot was left unfilled
func (d Decision) IsOpen() bool {
	return d.WorkerID == ""
}

// Slot is a location on a day, as seen during one eligibility pass
type Slot struct {
	Date          time.Time
	DayIndex      int
	WeekIndex     int
	Location      *Location
	PreferredPass bool
}

// IsWeekend reports whether the slot falls on Saturday or Sunday
func (s *Slot) IsWeekend() bool {
	return IsWeekend(s.Date)
}

// DateString returns the slot date in DateLayout
func (s *Slot) DateString() string {
	return s.Date.Format(DateLayout)
}

// IsWeekend reports whether t falls on Saturday or Sunday
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// SlotValidationError describes a broken invariant found in a finished rota
type SlotValidationError struct {
	Date          string
	LocationID    string
	WorkerID      string
	CriterionName string
	Description   string
}
