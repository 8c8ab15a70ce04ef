package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/db"
	"github.com/jakechorley/venue-rota/pkg/windowlock"
)

const uniqueViolation = "23505"

var (
	_ db.Database     = (*DB)(nil)
	_ db.RosterWriter = (*DB)(nil)
)

// InTx runs fn inside a single transaction, committing only if fn succeeds
func (d *DB) InTx(ctx context.Context, fn func(tx db.ShiftTx) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&shiftTx{tx: tx, logger: d.logger}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", translateError(err))
	}
	return nil
}

type shiftTx struct {
	tx     pgx.Tx
	logger *zap.Logger
}

// LockWindow takes a transaction-scoped advisory lock per week, in key order
func (t *shiftTx) LockWindow(ctx context.Context, from, to time.Time) error {
	for _, key := range windowlock.WeekKeys(from, to) {
		if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("failed to take advisory lock %s: %w", key, err)
		}
	}
	return nil
}

// GetShifts retrieves shifts in a status between two dates, inclusive
func (t *shiftTx) GetShifts(ctx context.Context, from, to time.Time, status model.Status) ([]db.Shift, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, shift_date, location_id, worker_id, status
		FROM shifts
		WHERE shift_date BETWEEN $1 AND $2 AND status = $3
		ORDER BY shift_date, location_id
	`, dateOnly(from), dateOnly(to), string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []db.Shift
	for rows.Next() {
		var s db.Shift
		var shiftDate time.Time
		var workerID *string
		var shiftStatus string
		if err := rows.Scan(&s.ID, &shiftDate, &s.LocationID, &workerID, &shiftStatus); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		s.ShiftDate = shiftDate.Format("2006-01-02")
		s.Status = model.Status(shiftStatus)
		if workerID != nil {
			s.WorkerID = *workerID
		}
		shifts = append(shifts, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}

	return shifts, nil
}

// DeleteShifts deletes shifts in a status between two dates and returns how many went
func (t *shiftTx) DeleteShifts(ctx context.Context, from, to time.Time, status model.Status) (int, error) {
	tag, err := t.tx.Exec(ctx, `
		DELETE FROM shifts
		WHERE shift_date BETWEEN $1 AND $2 AND status = $3
	`, dateOnly(from), dateOnly(to), string(status))
	if err != nil {
		return 0, fmt.Errorf("failed to delete shifts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// InsertShifts inserts shift records in one batch
func (t *shiftTx) InsertShifts(ctx context.Context, shifts []db.Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range shifts {
		var workerID *string
		if !s.IsOpen() {
			workerID = &s.WorkerID
		}
		batch.Queue(`
			INSERT INTO shifts (id, shift_date, location_id, worker_id, status)
			VALUES ($1, $2, $3, $4, $5)
		`, s.ID, s.ShiftDate, s.LocationID, workerID, string(s.Status))
	}

	results := t.tx.SendBatch(ctx, batch)
	for range shifts {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert shift: %w", translateError(err))
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to insert shifts: %w", translateError(err))
	}

	t.logger.Debug("Inserted shifts", zap.Int("count", len(shifts)))
	return nil
}

// UpdateShiftStatus moves shifts between statuses and returns how many moved
func (t *shiftTx) UpdateShiftStatus(ctx context.Context, from, to time.Time, fromStatus, toStatus model.Status) (int, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE shifts SET status = $4
		WHERE shift_date BETWEEN $1 AND $2 AND status = $3
	`, dateOnly(from), dateOnly(to), string(fromStatus), string(toStatus))
	if err != nil {
		return 0, fmt.Errorf("failed to update shift status: %w", translateError(err))
	}
	return int(tag.RowsAffected()), nil
}

// translateError maps a unique violation to db.ErrConflict and leaves other errors alone
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", db.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}
