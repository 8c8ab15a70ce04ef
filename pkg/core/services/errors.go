package services

import "errors"

var (
	// ErrNothingToPublish is returned when a publish would not change anything
	ErrNothingToPublish = errors.New("nothing to publish")

	// ErrInvalidWindow is returned for a malformed window start or length
	ErrInvalidWindow = errors.New("invalid window")

	// ErrUnknownDecision is returned when a publish decision falls outside the window
	// or names a location or worker that does not exist
	ErrUnknownDecision = errors.New("unknown decision")
)
