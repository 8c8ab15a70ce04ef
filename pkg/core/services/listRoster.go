package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/core/roster"
	"github.com/jakechorley/venue-rota/pkg/db"
)

// RosterEntry describes a worker as the allocator sees them
type RosterEntry struct {
	Worker      model.Worker
	Schedulable bool
	WeekendOnly bool
	Allowed     []string
	Preferred   []string
}

// ListRoster returns every worker ordered by name, with the location names they may and prefer to work
func ListRoster(ctx context.Context, rosterStore db.RosterStore, cfg *config.Config, logger *zap.Logger) ([]RosterEntry, error) {
	workers, err := rosterStore.GetWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workers: %w", err)
	}

	r, err := roster.Load(ctx, rosterStore, cfg.Rules.WeekendOnlyLocations)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	sort.SliceStable(workers, func(i, j int) bool {
		return workers[i].Name < workers[j].Name
	})

	entries := make([]RosterEntry, 0, len(workers))
	for _, w := range workers {
		entry := RosterEntry{
			Worker:      w,
			Schedulable: w.Schedulable(),
			WeekendOnly: r.WeekendOnlyWorkers[w.ID],
		}
		for _, l := range r.Locations {
			setting, ok := r.Setting(w.ID, l.ID)
			if !ok || setting.IsAllowed {
				entry.Allowed = append(entry.Allowed, l.Name)
			}
			if ok && setting.IsAllowed && setting.IsPreferred {
				entry.Preferred = append(entry.Preferred, l.Name)
			}
		}
		entries = append(entries, entry)
	}

	logger.Debug("Listed roster", zap.Int("workers", len(entries)))
	return entries, nil
}
