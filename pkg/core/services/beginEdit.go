package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/core/roster"
	"github.com/jakechorley/venue-rota/pkg/db"
	"github.com/jakechorley/venue-rota/pkg/windowlock"
)

// BeginEditResult describes what beginEdit did to the window's drafts
type BeginEditResult struct {
	Window Window

	// Generated is set when the window had nothing to copy and fresh drafts were generated
	Generated *GenerateResult

	// KeptDrafts is set when an unpublished window already had drafts
	KeptDrafts    int
	DeletedDrafts int
	ClonedShifts  int
}

// BeginEdit prepares the window's drafts for manual editing.
//
// Published rows are copied into fresh drafts, replacing any drafts already present.
// A window with no published rows keeps its drafts, or has drafts generated when it has none:
// drafts are only ever replaced by a published copy, never deleted with nothing to take their place.
func BeginEdit(
	ctx context.Context,
	rosterStore db.RosterStore,
	shiftStore db.ShiftStore,
	locker windowlock.Locker,
	cfg *config.Config,
	logger *zap.Logger,
	start string,
	weeks int,
) (*BeginEditResult, error) {
	window, err := ResolveWindow(start, weeks, cfg, time.Now())
	if err != nil {
		return nil, err
	}

	logger.Debug("Starting beginEdit", zap.String("window", window.String()))

	r, err := roster.Load(ctx, rosterStore, cfg.Rules.WeekendOnlyLocations)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	unlock, err := locker.Lock(ctx, windowlock.WeekKeys(window.Start, window.End())...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock window: %w", err)
	}
	defer unlock()

	result := &BeginEditResult{Window: window}
	err = shiftStore.InTx(ctx, func(tx db.ShiftTx) error {
		if err := tx.LockWindow(ctx, window.Start, window.End()); err != nil {
			return fmt.Errorf("failed to lock window: %w", err)
		}

		published, err := tx.GetShifts(ctx, window.Start, window.End(), model.StatusPublished)
		if err != nil {
			return fmt.Errorf("failed to fetch published shifts: %w", err)
		}

		if len(published) == 0 {
			drafts, err := tx.GetShifts(ctx, window.Start, window.End(), model.StatusDraft)
			if err != nil {
				return fmt.Errorf("failed to fetch draft shifts: %w", err)
			}
			if len(drafts) > 0 {
				logger.Info("Window is unpublished, keeping existing drafts", zap.Int("drafts", len(drafts)))
				result.KeptDrafts = len(drafts)
				return nil
			}

			logger.Info("Window has no shifts, generating drafts")
			generated, err := generateInTx(ctx, tx, r, cfg, logger, window, GenerateOptions{})
			if err != nil {
				return err
			}
			result.Generated = generated
			return nil
		}

		deleted, err := tx.DeleteShifts(ctx, window.Start, window.End(), model.StatusDraft)
		if err != nil {
			return fmt.Errorf("failed to delete drafts: %w", err)
		}

		clones := cloneShifts(published, model.StatusDraft)
		if err := tx.InsertShifts(ctx, clones); err != nil {
			return fmt.Errorf("failed to copy published shifts into drafts: %w", err)
		}

		result.DeletedDrafts = deleted
		result.ClonedShifts = len(clones)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Drafts ready for editing",
		zap.String("window", window.String()),
		zap.Int("deleted", result.DeletedDrafts),
		zap.Int("cloned", result.ClonedShifts),
		zap.Int("kept", result.KeptDrafts),
		zap.Bool("generated", result.Generated != nil))

	return result, nil
}
