package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/pkg/core/model"
)

// GetWorkers retrieves every worker record
func (d *DB) GetWorkers(ctx context.Context) ([]model.Worker, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, is_helper, on_sick_leave, is_active
		FROM workers
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []model.Worker
	for rows.Next() {
		var w model.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.IsHelper, &w.OnSickLeave, &w.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workers: %w", err)
	}

	return workers, nil
}

// GetLocations retrieves active locations in display order
func (d *DB) GetLocations(ctx context.Context) ([]model.Location, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, zone, display_order, is_active
		FROM locations
		WHERE is_active
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Zone, &l.DisplayOrder, &l.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}

	return locations, nil
}

// GetEligibilitySettings retrieves every worker/location setting
func (d *DB) GetEligibilitySettings(ctx context.Context) ([]model.EligibilitySetting, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT worker_id, location_id, is_allowed, is_preferred
		FROM eligibility_settings
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligibility settings: %w", err)
	}
	defer rows.Close()

	var settings []model.EligibilitySetting
	for rows.Next() {
		var s model.EligibilitySetting
		if err := rows.Scan(&s.WorkerID, &s.LocationID, &s.IsAllowed, &s.IsPreferred); err != nil {
			return nil, fmt.Errorf("failed to scan eligibility setting: %w", err)
		}
		settings = append(settings, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating eligibility settings: %w", err)
	}

	return settings, nil
}

// SaveRoster makes the stored roster match the given one in one transaction.
// Workers and locations are upserted by primary key and the ones not given are marked
// inactive, since past shifts still refer to them. Settings not given are deleted.
func (d *DB) SaveRoster(ctx context.Context, workers []model.Worker, locations []model.Location, settings []model.EligibilitySetting) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, w := range workers {
		batch.Queue(`
			INSERT INTO workers (id, name, is_helper, on_sick_leave, is_active)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				is_helper = EXCLUDED.is_helper,
				on_sick_leave = EXCLUDED.on_sick_leave,
				is_active = EXCLUDED.is_active
		`, w.ID, w.Name, w.IsHelper, w.OnSickLeave, w.IsActive)
	}
	for _, l := range locations {
		batch.Queue(`
			INSERT INTO locations (id, name, zone, display_order, is_active)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				zone = EXCLUDED.zone,
				display_order = EXCLUDED.display_order,
				is_active = EXCLUDED.is_active
		`, l.ID, l.Name, l.Zone, l.DisplayOrder, l.IsActive)
	}
	for _, s := range settings {
		batch.Queue(`
			INSERT INTO eligibility_settings (worker_id, location_id, is_allowed, is_preferred)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (worker_id, location_id) DO UPDATE SET
				is_allowed = EXCLUDED.is_allowed,
				is_preferred = EXCLUDED.is_preferred
		`, s.WorkerID, s.LocationID, s.IsAllowed, s.IsPreferred)
	}

	workerIDs := make([]string, 0, len(workers))
	for _, w := range workers {
		workerIDs = append(workerIDs, w.ID)
	}
	locationIDs := make([]string, 0, len(locations))
	for _, l := range locations {
		locationIDs = append(locationIDs, l.ID)
	}
	settingWorkers := make([]string, 0, len(settings))
	settingLocations := make([]string, 0, len(settings))
	for _, s := range settings {
		settingWorkers = append(settingWorkers, s.WorkerID)
		settingLocations = append(settingLocations, s.LocationID)
	}

	batch.Queue(`
		DELETE FROM eligibility_settings e
		WHERE NOT EXISTS (
			SELECT 1 FROM unnest($1::text[], $2::text[]) AS k (worker_id, location_id)
			WHERE k.worker_id = e.worker_id AND k.location_id = e.location_id
		)
	`, settingWorkers, settingLocations)
	batch.Queue(`UPDATE workers SET is_active = FALSE WHERE is_active AND NOT (id = ANY($1::text[]))`, workerIDs)
	batch.Queue(`UPDATE locations SET is_active = FALSE WHERE is_active AND NOT (id = ANY($1::text[]))`, locationIDs)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit roster: %w", err)
	}

	d.logger.Debug("Saved roster",
		zap.Int("workers", len(workers)),
		zap.Int("locations", len(locations)),
		zap.Int("settings", len(settings)))
	return nil
}
