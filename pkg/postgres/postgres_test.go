package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/venue-rota/pkg/db"
)

func TestTranslateError(t *testing.T) {
	unique := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "uix_shifts_date_location_status"}
	err := translateError(fmt.Errorf("exec: %w", unique))
	assert.ErrorIs(t, err, db.ErrConflict)
	assert.Contains(t, err.Error(), "uix_shifts_date_location_status")

	fk := &pgconn.PgError{Code: "23503"}
	assert.Same(t, fk, translateError(fk))

	other := errors.New("connection reset")
	assert.Equal(t, other, translateError(other))
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_shifts.sql": {Data: []byte("SELECT 2")},
		"migrations/001_roster.sql": {Data: []byte("SELECT 1")},
		"migrations/README.md":      {Data: []byte("notes")},
		"migrations/003_extra.sql":  {Data: []byte("SELECT 3")},
	}

	pending, err := pendingMigrations(fsys, map[string]bool{"002_shifts.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_roster.sql", "003_extra.sql"}, pending)
}

func TestEmbeddedMigrations(t *testing.T) {
	pending, err := pendingMigrations(migrationsFS, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_roster.sql", "002_shifts.sql", "003_shifts_without_roster_keys.sql"}, pending)
}

func TestMigrations_ShiftsDoNotReferenceRoster(t *testing.T) {
	create, err := migrationsFS.ReadFile("migrations/002_shifts.sql")
	require.NoError(t, err)
	drop, err := migrationsFS.ReadFile("migrations/003_shifts_without_roster_keys.sql")
	require.NoError(t, err)

	// Each roster reference created on shifts is dropped again
	for _, column := range []string{"location_id", "worker_id"} {
		require.True(t, strings.Contains(string(create), column), column)
		assert.Contains(t, string(drop), "DROP CONSTRAINT IF EXISTS shifts_"+column+"_fkey")
	}
}

func TestDateOnly(t *testing.T) {
	assert.Equal(t, "2025-03-09", dateOnly(time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)))
}
