package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/db"
)

var (
	_ db.Database     = (*DB)(nil)
	_ db.RosterWriter = (*DB)(nil)
)

// DB provides roster and shift storage in a single SQLite file
type DB struct {
	gorm   *gorm.DB
	logger *zap.Logger
}

// NewDB opens (or creates) the SQLite database at path and migrates the schema.
// Transactions begin IMMEDIATE so that a second writer waits instead of failing on upgrade.
func NewDB(ctx context.Context, path string, logger *zap.Logger) (*DB, error) {
	gdb, err := gorm.Open(gormsqlite.Open(withPragmas(path)), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	d := &DB{gorm: gdb, logger: logger}
	if err := d.RunMigrations(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return d, nil
}

// withPragmas adds the go-sqlite3 connection options unless the caller set their own
func withPragmas(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_txlock=immediate&_busy_timeout=5000"
}

// Close closes the underlying connection
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	return sqlDB.Close()
}

// RunMigrations creates or updates the tables and indexes
func (d *DB) RunMigrations(ctx context.Context) error {
	err := d.gorm.WithContext(ctx).AutoMigrate(
		&workerRecord{},
		&locationRecord{},
		&eligibilityRecord{},
		&shiftRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	d.logger.Debug("SQLite schema migrated")
	return nil
}

// GetWorkers retrieves every worker record
func (d *DB) GetWorkers(ctx context.Context) ([]model.Worker, error) {
	var records []workerRecord
	if err := d.gorm.WithContext(ctx).Order("name").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}

	workers := make([]model.Worker, len(records))
	for i, r := range records {
		workers[i] = r.toModel()
	}
	return workers, nil
}

// GetLocations retrieves active locations in display order
func (d *DB) GetLocations(ctx context.Context) ([]model.Location, error) {
	var records []locationRecord
	err := d.gorm.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order, id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}

	locations := make([]model.Location, len(records))
	for i, r := range records {
		locations[i] = r.toModel()
	}
	return locations, nil
}

// GetEligibilitySettings retrieves every explicit eligibility setting
func (d *DB) GetEligibilitySettings(ctx context.Context) ([]model.EligibilitySetting, error) {
	var records []eligibilityRecord
	if err := d.gorm.WithContext(ctx).Order("worker_id, location_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query eligibility settings: %w", err)
	}

	settings := make([]model.EligibilitySetting, len(records))
	for i, r := range records {
		settings[i] = r.toModel()
	}
	return settings, nil
}

// SaveRoster makes the stored roster match the given one in one transaction.
// Workers and locations are upserted by primary key and the ones not given are marked
// inactive, since past shifts still refer to them. Settings not given are deleted.
func (d *DB) SaveRoster(ctx context.Context, workers []model.Worker, locations []model.Location, settings []model.EligibilitySetting) error {
	return d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := func(value any) error {
			return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
		}

		workerIDs := make([]string, 0, len(workers))
		for _, w := range workers {
			r := workerRecord{ID: w.ID, Name: w.Name, IsHelper: w.IsHelper, OnSickLeave: w.OnSickLeave, IsActive: w.IsActive}
			if err := upsert(&r); err != nil {
				return fmt.Errorf("failed to save worker %s: %w", w.ID, err)
			}
			workerIDs = append(workerIDs, w.ID)
		}
		locationIDs := make([]string, 0, len(locations))
		for _, l := range locations {
			r := locationRecord{ID: l.ID, Name: l.Name, Zone: l.Zone, DisplayOrder: l.DisplayOrder, IsActive: l.IsActive}
			if err := upsert(&r); err != nil {
				return fmt.Errorf("failed to save location %s: %w", l.ID, err)
			}
			locationIDs = append(locationIDs, l.ID)
		}
		for _, s := range settings {
			r := eligibilityRecord{WorkerID: s.WorkerID, LocationID: s.LocationID, IsAllowed: s.IsAllowed, IsPreferred: s.IsPreferred}
			if err := upsert(&r); err != nil {
				return fmt.Errorf("failed to save setting %s/%s: %w", s.WorkerID, s.LocationID, err)
			}
		}

		retiredWorkers, err := deactivateMissing(tx, &workerRecord{}, workerIDs)
		if err != nil {
			return fmt.Errorf("failed to deactivate workers: %w", err)
		}
		retiredLocations, err := deactivateMissing(tx, &locationRecord{}, locationIDs)
		if err != nil {
			return fmt.Errorf("failed to deactivate locations: %w", err)
		}

		keep := make(map[[2]string]bool, len(settings))
		for _, s := range settings {
			keep[[2]string{s.WorkerID, s.LocationID}] = true
		}
		var existing []eligibilityRecord
		if err := tx.Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to query eligibility settings: %w", err)
		}
		removed := 0
		for _, r := range existing {
			if keep[[2]string{r.WorkerID, r.LocationID}] {
				continue
			}
			if err := tx.Where("worker_id = ? AND location_id = ?", r.WorkerID, r.LocationID).Delete(&eligibilityRecord{}).Error; err != nil {
				return fmt.Errorf("failed to delete setting %s/%s: %w", r.WorkerID, r.LocationID, err)
			}
			removed++
		}

		d.logger.Debug("Saved roster",
			zap.Int("workers", len(workers)),
			zap.Int("locations", len(locations)),
			zap.Int("settings", len(settings)),
			zap.Int64("deactivated_workers", retiredWorkers),
			zap.Int64("deactivated_locations", retiredLocations),
			zap.Int("removed_settings", removed))
		return nil
	})
}

// deactivateMissing clears is_active on every active row of record's table whose id is not in ids
func deactivateMissing(tx *gorm.DB, record any, ids []string) (int64, error) {
	query := tx.Model(record).Where("is_active = ?", true)
	if len(ids) > 0 {
		query = query.Where("id NOT IN ?", ids)
	}
	result := query.Update("is_active", false)
	return result.RowsAffected, result.Error
}

// InTx runs fn inside a single transaction, committing only if fn succeeds
func (d *DB) InTx(ctx context.Context, fn func(tx db.ShiftTx) error) error {
	return d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&shiftTx{tx: tx, logger: d.logger})
	})
}

type shiftTx struct {
	tx     *gorm.DB
	logger *zap.Logger
}

// LockWindow is a no-op: the transaction already holds the database write lock
func (t *shiftTx) LockWindow(ctx context.Context, from, to time.Time) error {
	return nil
}

func (t *shiftTx) inRange(ctx context.Context, from, to time.Time, status model.Status) *gorm.DB {
	return t.tx.WithContext(ctx).
		Model(&shiftRecord{}).
		Where("shift_date BETWEEN ? AND ? AND status = ?", dateOnly(from), dateOnly(to), string(status))
}

// GetShifts retrieves shifts in a status between two dates, inclusive
func (t *shiftTx) GetShifts(ctx context.Context, from, to time.Time, status model.Status) ([]db.Shift, error) {
	var records []shiftRecord
	if err := t.inRange(ctx, from, to, status).Order("shift_date, location_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}

	shifts := make([]db.Shift, len(records))
	for i, r := range records {
		shifts[i] = r.toShift()
	}
	return shifts, nil
}

// DeleteShifts deletes shifts in a status between two dates and returns how many went
func (t *shiftTx) DeleteShifts(ctx context.Context, from, to time.Time, status model.Status) (int, error) {
	result := t.inRange(ctx, from, to, status).Delete(&shiftRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete shifts: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// InsertShifts inserts shift records in batches
func (t *shiftTx) InsertShifts(ctx context.Context, shifts []db.Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	records := make([]shiftRecord, len(shifts))
	for i, s := range shifts {
		records[i] = fromShift(s)
	}

	if err := t.tx.WithContext(ctx).CreateInBatches(records, 100).Error; err != nil {
		return fmt.Errorf("failed to insert shifts: %w", translateError(err))
	}

	t.logger.Debug("Inserted shifts", zap.Int("count", len(shifts)))
	return nil
}

// UpdateShiftStatus moves shifts between statuses and returns how many moved
func (t *shiftTx) UpdateShiftStatus(ctx context.Context, from, to time.Time, fromStatus, toStatus model.Status) (int, error) {
	result := t.inRange(ctx, from, to, fromStatus).Update("status", string(toStatus))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update shift status: %w", translateError(result.Error))
	}
	return int(result.RowsAffected), nil
}

// translateError maps a unique violation to db.ErrConflict and leaves other errors alone
func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", db.ErrConflict, err)
	}
	return err
}

func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}
