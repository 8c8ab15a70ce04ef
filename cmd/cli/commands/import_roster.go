package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/pkg/db"
)

// ImportRosterCmd creates the importRoster command
func ImportRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importRoster",
		Short: "Copy workers, locations and settings from the roster spreadsheet into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("importRoster command")

			if app.Cfg.Roster.SheetID == "" {
				return fmt.Errorf("no roster spreadsheet configured (set roster.sheetID and the tab names)")
			}
			writer, ok := app.Database.(db.RosterWriter)
			if !ok {
				return fmt.Errorf("database does not support roster writes")
			}

			source, err := app.OpenRosterSheet()
			if err != nil {
				return err
			}

			workers, locations, settings, err := importRoster(app.Ctx, source, writer)
			if err != nil {
				return err
			}

			app.Logger.Info("Roster imported",
				zap.Int("workers", workers),
				zap.Int("locations", locations),
				zap.Int("settings", settings))

			fmt.Printf("\n✅ Roster Imported\n\n")
			fmt.Printf("Workers:     %d\n", workers)
			fmt.Printf("Locations:   %d\n", locations)
			fmt.Printf("Settings:    %d\n\n", settings)

			return nil
		},
	}
}

// importRoster makes writer's roster match the source. Settings naming a worker or location
// the source does not list (such as an inactive location) are dropped, and entries the
// source no longer lists are retired by the writer.
func importRoster(ctx context.Context, source db.RosterStore, writer db.RosterWriter) (int, int, int, error) {
	workers, err := source.GetWorkers(ctx)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read workers: %w", err)
	}
	locations, err := source.GetLocations(ctx)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read locations: %w", err)
	}
	settings, err := source.GetEligibilitySettings(ctx)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read settings: %w", err)
	}

	knownWorkers := make(map[string]bool, len(workers))
	for _, w := range workers {
		knownWorkers[w.ID] = true
	}
	knownLocations := make(map[string]bool, len(locations))
	for _, l := range locations {
		knownLocations[l.ID] = true
	}
	kept := settings[:0]
	for _, s := range settings {
		if knownWorkers[s.WorkerID] && knownLocations[s.LocationID] {
			kept = append(kept, s)
		}
	}
	settings = kept

	if err := writer.SaveRoster(ctx, workers, locations, settings); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to save roster: %w", err)
	}
	return len(workers), len(locations), len(settings), nil
}
