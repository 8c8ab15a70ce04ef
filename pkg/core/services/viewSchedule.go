package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/core/roster"
	"github.com/jakechorley/venue-rota/pkg/db"
)

// The archive listing scans every archived row between these dates
var (
	archiveFrom = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	archiveTo   = time.Date(2999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// ScheduleRow is one location's line of the schedule grid
type ScheduleRow struct {
	LocationID   string
	LocationName string
	// Cells holds one worker name per date; empty for an open or missing slot
	Cells []string
}

// ScheduleView is a grid of locations by dates for one status
type ScheduleView struct {
	Status model.Status
	Dates  []time.Time
	Rows   []ScheduleRow
	// ShiftCount is the number of rows found, open slots included
	ShiftCount int
}

// ArchiveWeek summarises one archived week
type ArchiveWeek struct {
	WeekStart  string
	ShiftCount int
}

// ViewSchedule builds the schedule grid for a window in the given status
func ViewSchedule(
	ctx context.Context,
	rosterStore db.RosterStore,
	shiftStore db.ShiftStore,
	cfg *config.Config,
	logger *zap.Logger,
	start string,
	weeks int,
	status model.Status,
) (*ScheduleView, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	window, err := ResolveWindow(start, weeks, cfg, time.Now())
	if err != nil {
		return nil, err
	}

	logger.Debug("Viewing schedule", zap.String("window", window.String()), zap.String("status", string(status)))

	return buildScheduleView(ctx, rosterStore, shiftStore, cfg, window, status)
}

// ListArchive returns every archived week, newest first
func ListArchive(ctx context.Context, shiftStore db.ShiftStore, logger *zap.Logger) ([]ArchiveWeek, error) {
	var shifts []db.Shift
	err := shiftStore.InTx(ctx, func(tx db.ShiftTx) error {
		var err error
		shifts, err = tx.GetShifts(ctx, archiveFrom, archiveTo, model.StatusArchived)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archived shifts: %w", err)
	}

	counts := make(map[string]int)
	for _, s := range shifts {
		date, err := time.Parse(dateLayout, s.ShiftDate)
		if err != nil {
			logger.Warn("Skipping archived shift with invalid date", zap.String("id", s.ID), zap.String("date", s.ShiftDate))
			continue
		}
		counts[weekStart(date).Format(dateLayout)]++
	}

	weeks := make([]ArchiveWeek, 0, len(counts))
	for week, count := range counts {
		weeks = append(weeks, ArchiveWeek{WeekStart: week, ShiftCount: count})
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekStart > weeks[j].WeekStart
	})

	logger.Debug("Listed archive", zap.Int("weeks", len(weeks)))
	return weeks, nil
}

// ViewArchive builds the archived grid for the week starting on weekStartDate (a Monday)
func ViewArchive(
	ctx context.Context,
	rosterStore db.RosterStore,
	shiftStore db.ShiftStore,
	cfg *config.Config,
	logger *zap.Logger,
	weekStartDate string,
) (*ScheduleView, error) {
	start, err := time.Parse(dateLayout, weekStartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid week start %q", ErrInvalidWindow, weekStartDate)
	}
	if start.Weekday() != time.Monday {
		return nil, fmt.Errorf("%w: week start %s is not a Monday", ErrInvalidWindow, weekStartDate)
	}

	logger.Debug("Viewing archive", zap.String("week_start", weekStartDate))

	return buildScheduleView(ctx, rosterStore, shiftStore, cfg, Window{Start: start, Weeks: 1}, model.StatusArchived)
}

func buildScheduleView(
	ctx context.Context,
	rosterStore db.RosterStore,
	shiftStore db.ShiftStore,
	cfg *config.Config,
	window Window,
	status model.Status,
) (*ScheduleView, error) {
	r, err := roster.Load(ctx, rosterStore, cfg.Rules.WeekendOnlyLocations)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	var shifts []db.Shift
	err = shiftStore.InTx(ctx, func(tx db.ShiftTx) error {
		var err error
		shifts, err = tx.GetShifts(ctx, window.Start, window.End(), status)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s shifts: %w", status, err)
	}

	dates := window.Dates()
	dayIndex := make(map[string]int, len(dates))
	for i, d := range dates {
		dayIndex[d.Format(dateLayout)] = i
	}

	view := &ScheduleView{Status: status, Dates: dates, ShiftCount: len(shifts)}
	rowIndex := make(map[string]int)
	for _, l := range r.Locations {
		rowIndex[l.ID] = len(view.Rows)
		view.Rows = append(view.Rows, ScheduleRow{LocationID: l.ID, LocationName: l.Name, Cells: make([]string, len(dates))})
	}

	db.SortShifts(shifts, r.LocationOrder())
	names := r.WorkerNames()
	for _, s := range shifts {
		idx, ok := rowIndex[s.LocationID]
		if !ok {
			// Rows for locations that have since been deactivated
			idx = len(view.Rows)
			rowIndex[s.LocationID] = idx
			view.Rows = append(view.Rows, ScheduleRow{LocationID: s.LocationID, LocationName: s.LocationID, Cells: make([]string, len(dates))})
		}
		if s.IsOpen() {
			continue
		}
		name, ok := names[s.WorkerID]
		if !ok {
			name = s.WorkerID
		}
		view.Rows[idx].Cells[dayIndex[s.ShiftDate]] = name
	}

	return view, nil
}
