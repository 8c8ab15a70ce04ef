package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/pkg/core/services"
)

// RolloverCmd creates the rollover command
func RolloverCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Archive the week that ended at the latest weekly boundary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nowFlag, _ := cmd.Flags().GetString("now")

			now := time.Now()
			if nowFlag != "" {
				var err error
				now, err = time.Parse(time.RFC3339, nowFlag)
				if err != nil {
					return fmt.Errorf("--now must be RFC3339 (e.g. 2025-03-09T23:00:00Z): %w", err)
				}
			}

			app.Logger.Debug("rollover command", zap.Time("now", now))

			result, err := services.Rollover(app.Ctx, app.Database, app.Locker, app.Cfg, app.Logger, now)
			if err != nil {
				return fmt.Errorf("rollover failed: %w", err)
			}

			fmt.Printf("\n📦 Rollover\n\n")
			fmt.Printf("Boundary:    %s\n", result.Boundary.Format("Mon 2006-01-02 15:04 MST"))
			fmt.Printf("Week:        %s\n", result.WeekStart.Format("2006-01-02"))
			if result.NoOp() {
				fmt.Printf("Status:      nothing to archive\n\n")
				return nil
			}
			fmt.Printf("Archived:    %d shifts\n", result.Archived)
			fmt.Printf("Replaced:    %d previously archived\n", result.ReplacedArchived)
			fmt.Printf("Discarded:   %d drafts\n", result.DiscardedDrafts)
			for _, week := range result.CaughtUpWeeks {
				fmt.Printf("Caught up:   %s (missed by an earlier rollover)\n", week.Format("2006-01-02"))
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().String("now", "", "Evaluate the boundary as of this RFC3339 time instead of the current time")

	return cmd
}

// WatchRolloverCmd creates the watchRollover command
func WatchRolloverCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchRollover",
		Short: "Keep running and roll weeks over as boundaries pass (Ctrl+C to stop)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher := &services.RolloverWatcher{
				ShiftStore: app.Database,
				Locker:     app.Locker,
				Config:     app.Cfg,
				Logger:     app.Logger,
				Interval:   interval,
			}

			err := watcher.Run(ctx)
			if errors.Is(err, context.Canceled) {
				fmt.Println("\n👋 Stopped watching")
				return nil
			}
			return err
		},
	}

	cmd.Flags().Duration("interval", 5*time.Minute, "How often to check for a passed boundary")

	return cmd
}
