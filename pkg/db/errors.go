package db

import "errors"

// ErrConflict is returned when a write would create a second row for the same date, location and status
var ErrConflict = errors.New("shift already exists for date, location and status")
