package services

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/db"
	"github.com/jakechorley/venue-rota/pkg/windowlock"
)

// boundarySearchDays is how far back rollover looks for the latest boundary
const boundarySearchDays = 8

// historyStart bounds the search for published weeks missed by earlier rollovers
var historyStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// RolloverResult contains the rollover results
type RolloverResult struct {
	// Boundary is the most recent boundary at or before now, in the configured time zone
	Boundary time.Time

	// WeekStart is the Monday of the week that was rolled over
	WeekStart time.Time

	// CaughtUpWeeks lists earlier weeks that were still published and got archived in this run
	CaughtUpWeeks []time.Time

	Archived         int
	ReplacedArchived int
	DiscardedDrafts  int
}

// NoOp reports whether the rollover changed nothing
func (r *RolloverResult) NoOp() bool {
	return r.Archived == 0 && r.ReplacedArchived == 0 && r.DiscardedDrafts == 0
}

// Rollover archives the published rows of the week that ended at the latest boundary and
// discards that week's drafts. Published weeks before it, left behind by missed rollovers,
// are archived in the same run. Running it again before the next boundary changes nothing.
func Rollover(
	ctx context.Context,
	shiftStore db.ShiftStore,
	locker windowlock.Locker,
	cfg *config.Config,
	logger *zap.Logger,
	now time.Time,
) (*RolloverResult, error) {
	boundary, err := latestBoundary(cfg.Rollover, now)
	if err != nil {
		return nil, err
	}

	result := &RolloverResult{Boundary: boundary}
	if boundary.IsZero() {
		logger.Debug("No rollover boundary in range", zap.Time("now", now))
		return result, nil
	}

	// The boundary's local calendar date decides the week
	localDate := time.Date(boundary.Year(), boundary.Month(), boundary.Day(), 0, 0, 0, 0, time.UTC)
	from := weekStart(localDate)
	to := from.AddDate(0, 0, 6)
	result.WeekStart = from

	logger.Debug("Starting rollover",
		zap.Time("now", now),
		zap.Time("boundary", boundary),
		zap.String("week_start", from.Format(dateLayout)))

	rangeStart, err := earliestPublishedWeek(ctx, shiftStore, from)
	if err != nil {
		return nil, err
	}

	unlock, err := locker.Lock(ctx, windowlock.WeekKeys(rangeStart, to)...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock week: %w", err)
	}
	defer unlock()

	err = shiftStore.InTx(ctx, func(tx db.ShiftTx) error {
		if err := tx.LockWindow(ctx, rangeStart, to); err != nil {
			return fmt.Errorf("failed to lock week: %w", err)
		}

		for week := rangeStart; !week.After(from); week = week.AddDate(0, 0, 7) {
			archived, replaced, err := archiveWeek(ctx, tx, week)
			if err != nil {
				return err
			}
			result.Archived += archived
			result.ReplacedArchived += replaced
			if archived > 0 && week.Before(from) {
				result.CaughtUpWeeks = append(result.CaughtUpWeeks, week)
			}
		}

		discarded, err := tx.DeleteShifts(ctx, rangeStart, to, model.StatusDraft)
		if err != nil {
			return fmt.Errorf("failed to delete drafts: %w", err)
		}
		result.DiscardedDrafts = discarded
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, week := range result.CaughtUpWeeks {
		logger.Warn("Archived a week missed by an earlier rollover", zap.String("week_start", week.Format(dateLayout)))
	}

	if result.NoOp() {
		logger.Debug("Rollover already applied", zap.String("week_start", from.Format(dateLayout)))
	} else {
		logger.Info("Rolled over week",
			zap.String("week_start", from.Format(dateLayout)),
			zap.Int("archived", result.Archived),
			zap.Int("replaced_archived", result.ReplacedArchived),
			zap.Int("discarded_drafts", result.DiscardedDrafts))
	}

	return result, nil
}

// archiveWeek moves one week's published rows to the archive, replacing archived rows for
// that week. Weeks with nothing published keep their archive.
func archiveWeek(ctx context.Context, tx db.ShiftTx, from time.Time) (archived, replaced int, err error) {
	to := from.AddDate(0, 0, 6)

	published, err := tx.GetShifts(ctx, from, to, model.StatusPublished)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch published shifts: %w", err)
	}
	if len(published) == 0 {
		return 0, 0, nil
	}

	replaced, err = tx.DeleteShifts(ctx, from, to, model.StatusArchived)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete archived shifts: %w", err)
	}
	archived, err = tx.UpdateShiftStatus(ctx, from, to, model.StatusPublished, model.StatusArchived)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to archive published shifts: %w", err)
	}
	return archived, replaced, nil
}

// earliestPublishedWeek returns the Monday of the oldest published row before the week
// starting at from, or from itself when there is none
func earliestPublishedWeek(ctx context.Context, shiftStore db.ShiftStore, from time.Time) (time.Time, error) {
	earliest := from
	err := shiftStore.InTx(ctx, func(tx db.ShiftTx) error {
		stale, err := tx.GetShifts(ctx, historyStart, from.AddDate(0, 0, -1), model.StatusPublished)
		if err != nil {
			return fmt.Errorf("failed to fetch earlier published shifts: %w", err)
		}
		for _, s := range stale {
			date, err := time.Parse(dateLayout, s.ShiftDate)
			if err != nil {
				return fmt.Errorf("invalid shift date %q: %w", s.ShiftDate, err)
			}
			if week := weekStart(date); week.Before(earliest) {
				earliest = week
			}
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return earliest, nil
}

// latestBoundary returns the last occurrence of the rollover rule at or before now, in the
// configured time zone, or the zero time if none falls within the search range
func latestBoundary(cfg config.RolloverConfig, now time.Time) (time.Time, error) {
	loc, err := cfg.Location()
	if err != nil {
		return time.Time{}, err
	}

	rule, err := rrule.StrToRRule(cfg.RRule)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse rollover rrule: %w", err)
	}

	local := now.In(loc)
	searchStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -boundarySearchDays)
	rule.DTStart(searchStart)

	return rule.Before(local, true), nil
}

// RolloverWatcher runs Rollover on a fixed interval until its context ends
type RolloverWatcher struct {
	ShiftStore db.ShiftStore
	Locker     windowlock.Locker
	Config     *config.Config
	Logger     *zap.Logger
	Interval   time.Duration

	// Now defaults to time.Now
	Now func() time.Time
}

// Run checks for a rollover immediately and then once per interval.
// Failures are logged and retried on the next tick.
func (w *RolloverWatcher) Run(ctx context.Context) error {
	now := w.Now
	if now == nil {
		now = time.Now
	}

	w.Logger.Info("Watching for rollover", zap.Duration("interval", w.Interval))

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if _, err := Rollover(ctx, w.ShiftStore, w.Locker, w.Config, w.Logger, now()); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Logger.Error("Rollover failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			w.Logger.Info("Stopped watching for rollover")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
