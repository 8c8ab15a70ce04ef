package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/core/allocator"
	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/core/roster"
	"github.com/jakechorley/venue-rota/pkg/db"
	"github.com/jakechorley/venue-rota/pkg/windowlock"
)

// GenerateOptions controls a generation run
type GenerateOptions struct {
	// Start is the first day of the window, YYYY-MM-DD. Empty means the next Monday.
	Start string

	// Weeks defaults to the configured window length
	Weeks int

	// Preview returns the decisions without writing anything
	Preview bool

	// RespectExisting keeps assignments already in the window (drafts if any, else published)
	RespectExisting bool

	// Force generates drafts even though the window is already published
	Force bool

	// Seed overrides the configured tie-break seed
	Seed *int64
}

// PreviewItem is one slot of a generated schedule
type PreviewItem struct {
	Date       string
	LocationID string
	WorkerName *string
}

// GenerateResult contains the generation results
type GenerateResult struct {
	Window Window

	// Skipped is true when the window is already published and Force was not set
	Skipped bool

	Decisions        []allocator.Decision
	Preview          []PreviewItem
	FilledCount      int
	OpenCount        int
	FrozenCount      int
	DeletedDrafts    int
	InsertedDrafts   int
	ValidationErrors []allocator.SlotValidationError
}

// GenerateRota runs the allocator over a window.
// In persist mode the window's drafts are replaced by the new decisions in one transaction.
// A window that already has published rows is left alone unless opts.Force is set.
func GenerateRota(
	ctx context.Context,
	rosterStore db.RosterStore,
	shiftStore db.ShiftStore,
	locker windowlock.Locker,
	cfg *config.Config,
	logger *zap.Logger,
	opts GenerateOptions,
) (*GenerateResult, error) {
	window, err := ResolveWindow(opts.Start, opts.Weeks, cfg, time.Now())
	if err != nil {
		return nil, err
	}

	logger.Debug("Starting generateRota",
		zap.String("window", window.String()),
		zap.Bool("preview", opts.Preview),
		zap.Bool("respect_existing", opts.RespectExisting),
		zap.Bool("force", opts.Force))

	logger.Debug("Loading roster")
	r, err := roster.Load(ctx, rosterStore, cfg.Rules.WeekendOnlyLocations)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	logger.Debug("Loaded roster",
		zap.Int("workers", len(r.Workers)),
		zap.Int("locations", len(r.Locations)),
		zap.Int("settings", len(r.Settings)))

	unlock, err := locker.Lock(ctx, windowlock.WeekKeys(window.Start, window.End())...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock window: %w", err)
	}
	defer unlock()

	var result *GenerateResult
	err = shiftStore.InTx(ctx, func(tx db.ShiftTx) error {
		var err error
		result, err = generateInTx(ctx, tx, r, cfg, logger, window, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// generateInTx does the work of GenerateRota inside an open transaction
func generateInTx(
	ctx context.Context,
	tx db.ShiftTx,
	r *roster.Roster,
	cfg *config.Config,
	logger *zap.Logger,
	window Window,
	opts GenerateOptions,
) (*GenerateResult, error) {
	if err := tx.LockWindow(ctx, window.Start, window.End()); err != nil {
		return nil, fmt.Errorf("failed to lock window: %w", err)
	}

	result := &GenerateResult{Window: window}

	published, err := tx.GetShifts(ctx, window.Start, window.End(), model.StatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch published shifts: %w", err)
	}
	if len(published) > 0 && !opts.Force {
		logger.Info("Window is already published; use beginEdit to change it",
			zap.String("window", window.String()),
			zap.Int("published", len(published)))
		result.Skipped = true
		return result, nil
	}

	var frozen []db.Shift
	if opts.RespectExisting {
		drafts, err := tx.GetShifts(ctx, window.Start, window.End(), model.StatusDraft)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch draft shifts: %w", err)
		}
		frozen = drafts
		if len(frozen) == 0 {
			frozen = published
		}
		logger.Debug("Respecting existing assignments", zap.Int("count", len(frozen)))
	}

	history, err := fetchHistory(ctx, tx, window, cfg.Rules.HardStreakCap)
	if err != nil {
		return nil, err
	}
	logger.Debug("Fetched history", zap.Int("count", len(history)))

	allocConfig := buildAllocationConfig(r, cfg, window, frozen, history, newRand(cfg, opts.Seed, logger), logger)

	logger.Info("Running allocation algorithm")
	outcome, err := allocator.Allocate(allocConfig)
	if err != nil {
		return nil, fmt.Errorf("allocation failed: %w", err)
	}

	result.Decisions = outcome.Decisions
	result.FilledCount = outcome.FilledCount
	result.OpenCount = outcome.OpenCount
	result.ValidationErrors = outcome.ValidationErrors
	result.Preview = buildPreview(outcome.Decisions, r.WorkerNames())
	for _, d := range outcome.Decisions {
		if d.Reason == allocator.ReasonFrozen {
			result.FrozenCount++
		}
	}

	logger.Info("Allocation completed",
		zap.Int("filled", outcome.FilledCount),
		zap.Int("open", outcome.OpenCount),
		zap.Int("frozen", result.FrozenCount),
		zap.Int("validation_errors", len(outcome.ValidationErrors)))

	for _, verr := range outcome.ValidationErrors {
		logger.Warn("Validation error",
			zap.String("criterion", verr.CriterionName),
			zap.String("date", verr.Date),
			zap.String("location_id", verr.LocationID),
			zap.String("worker_id", verr.WorkerID),
			zap.String("description", verr.Description))
	}

	if opts.Preview {
		logger.Debug("Preview mode, not saving drafts")
		return result, nil
	}

	deleted, err := tx.DeleteShifts(ctx, window.Start, window.End(), model.StatusDraft)
	if err != nil {
		return nil, fmt.Errorf("failed to delete drafts: %w", err)
	}

	drafts := decisionsToShifts(outcome.Decisions, model.StatusDraft)
	if err := tx.InsertShifts(ctx, drafts); err != nil {
		return nil, fmt.Errorf("failed to save drafts: %w", err)
	}

	result.DeletedDrafts = deleted
	result.InsertedDrafts = len(drafts)

	logger.Info("Saved drafts",
		zap.String("window", window.String()),
		zap.Int("deleted", deleted),
		zap.Int("inserted", len(drafts)))

	return result, nil
}

// fetchHistory returns the published and archived assignments on the days just before the window
func fetchHistory(ctx context.Context, tx db.ShiftTx, window Window, days int) ([]db.Shift, error) {
	if days <= 0 {
		return nil, nil
	}
	from := window.Start.AddDate(0, 0, -days)
	to := window.Start.AddDate(0, 0, -1)

	var history []db.Shift
	for _, status := range []model.Status{model.StatusPublished, model.StatusArchived} {
		shifts, err := tx.GetShifts(ctx, from, to, status)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s history: %w", status, err)
		}
		history = append(history, shifts...)
	}
	return history, nil
}

// buildPreview converts decisions into preview items with worker names
func buildPreview(decisions []allocator.Decision, names map[string]string) []PreviewItem {
	items := make([]PreviewItem, len(decisions))
	for i, d := range decisions {
		items[i] = PreviewItem{Date: d.Date, LocationID: d.LocationID}
		if d.IsOpen() {
			continue
		}
		name, ok := names[d.WorkerID]
		if !ok {
			name = d.WorkerID
		}
		items[i].WorkerName = &name
	}
	return items
}
