package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/core/roster"
	"github.com/jakechorley/venue-rota/pkg/db"
	"github.com/jakechorley/venue-rota/pkg/windowlock"
)

// PublishDecision sets the worker for one slot.
// Location and Worker accept either an ID or a name; an empty Worker leaves the slot open.
type PublishDecision struct {
	Date     string `yaml:"date"`
	Location string `yaml:"location"`
	Worker   string `yaml:"worker,omitempty"`
}

// PublishResult contains the publish results
type PublishResult struct {
	Window            Window
	Published         int
	ReplacedPublished int
	DiscardedDrafts   int
}

// PublishRota makes a window's schedule live.
//
// Without decisions, the window's drafts are promoted and the previous published rows removed.
// With decisions, the window's drafts and published rows are replaced by published rows built
// from the decisions. Either form returns ErrNothingToPublish when there is nothing to promote.
func PublishRota(
	ctx context.Context,
	rosterStore db.RosterStore,
	shiftStore db.ShiftStore,
	locker windowlock.Locker,
	cfg *config.Config,
	logger *zap.Logger,
	start string,
	weeks int,
	decisions []PublishDecision,
) (*PublishResult, error) {
	window, err := ResolveWindow(start, weeks, cfg, time.Now())
	if err != nil {
		return nil, err
	}

	logger.Debug("Starting publishRota",
		zap.String("window", window.String()),
		zap.Int("decisions", len(decisions)))

	var rows []db.Shift
	if decisions != nil {
		if len(decisions) == 0 {
			return nil, fmt.Errorf("%w: no decisions supplied", ErrNothingToPublish)
		}

		r, err := roster.Load(ctx, rosterStore, cfg.Rules.WeekendOnlyLocations)
		if err != nil {
			return nil, fmt.Errorf("failed to load roster: %w", err)
		}

		rows, err = buildPublishedRows(window, r, decisions)
		if err != nil {
			return nil, err
		}
	}

	unlock, err := locker.Lock(ctx, windowlock.WeekKeys(window.Start, window.End())...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock window: %w", err)
	}
	defer unlock()

	result := &PublishResult{Window: window}
	err = shiftStore.InTx(ctx, func(tx db.ShiftTx) error {
		if err := tx.LockWindow(ctx, window.Start, window.End()); err != nil {
			return fmt.Errorf("failed to lock window: %w", err)
		}
		if rows == nil {
			return promoteDrafts(ctx, tx, window, result)
		}
		return replaceWithDecisions(ctx, tx, window, rows, result)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Published rota",
		zap.String("window", window.String()),
		zap.Int("published", result.Published),
		zap.Int("replaced_published", result.ReplacedPublished),
		zap.Int("discarded_drafts", result.DiscardedDrafts))

	return result, nil
}

// promoteDrafts turns every draft in the window into a published row
func promoteDrafts(ctx context.Context, tx db.ShiftTx, window Window, result *PublishResult) error {
	drafts, err := tx.GetShifts(ctx, window.Start, window.End(), model.StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to fetch draft shifts: %w", err)
	}
	if len(drafts) == 0 {
		return fmt.Errorf("%w: no drafts in %s", ErrNothingToPublish, window)
	}

	replaced, err := tx.DeleteShifts(ctx, window.Start, window.End(), model.StatusPublished)
	if err != nil {
		return fmt.Errorf("failed to delete published shifts: %w", err)
	}

	promoted, err := tx.UpdateShiftStatus(ctx, window.Start, window.End(), model.StatusDraft, model.StatusPublished)
	if err != nil {
		return fmt.Errorf("failed to promote drafts: %w", err)
	}

	result.Published = promoted
	result.ReplacedPublished = replaced
	return nil
}

// replaceWithDecisions swaps the window's drafts and published rows for rows
func replaceWithDecisions(ctx context.Context, tx db.ShiftTx, window Window, rows []db.Shift, result *PublishResult) error {
	discarded, err := tx.DeleteShifts(ctx, window.Start, window.End(), model.StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to delete drafts: %w", err)
	}

	replaced, err := tx.DeleteShifts(ctx, window.Start, window.End(), model.StatusPublished)
	if err != nil {
		return fmt.Errorf("failed to delete published shifts: %w", err)
	}

	if err := tx.InsertShifts(ctx, rows); err != nil {
		return fmt.Errorf("failed to insert published shifts: %w", err)
	}

	result.Published = len(rows)
	result.ReplacedPublished = replaced
	result.DiscardedDrafts = discarded
	return nil
}

// buildPublishedRows validates decisions against the window and roster and converts them to rows
func buildPublishedRows(window Window, r *roster.Roster, decisions []PublishDecision) ([]db.Shift, error) {
	locationIDs := make(map[string]bool, len(r.Locations))
	for _, l := range r.Locations {
		locationIDs[l.ID] = true
	}
	workerNames := r.WorkerNames()

	rows := make([]db.Shift, 0, len(decisions))
	for i, d := range decisions {
		if _, err := time.Parse(dateLayout, d.Date); err != nil || !window.Contains(d.Date) {
			return nil, fmt.Errorf("%w: decision %d date %q is outside %s", ErrUnknownDecision, i, d.Date, window)
		}

		locationID := d.Location
		if !locationIDs[locationID] {
			id, ok := r.LocationIDByName(d.Location)
			if !ok {
				return nil, fmt.Errorf("%w: decision %d names unknown location %q", ErrUnknownDecision, i, d.Location)
			}
			locationID = id
		}

		workerID := d.Worker
		if workerID != "" {
			if _, ok := workerNames[workerID]; !ok {
				id, ok := r.WorkerIDByName(d.Worker)
				if !ok {
					return nil, fmt.Errorf("%w: decision %d names unknown worker %q", ErrUnknownDecision, i, d.Worker)
				}
				workerID = id
			}
		}

		rows = append(rows, db.Shift{
			ID:         uuid.New().String(),
			ShiftDate:  d.Date,
			LocationID: locationID,
			WorkerID:   workerID,
			Status:     model.StatusPublished,
		})
	}

	if duplicates := db.FindDuplicateKeys(rows); len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: %d slot(s) decided twice, first %s at %s",
			db.ErrConflict, len(duplicates), duplicates[0].ShiftDate, duplicates[0].LocationID)
	}

	return rows, nil
}
