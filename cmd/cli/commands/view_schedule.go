package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/core/services"
)

// ViewScheduleCmd creates the viewSchedule command
func ViewScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewSchedule [start]",
		Short: "Show the schedule grid for a window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weeks, _ := cmd.Flags().GetInt("weeks")
			status, _ := cmd.Flags().GetString("status")
			start := ""
			if len(args) > 0 {
				start = args[0]
			}

			app.Logger.Debug("viewSchedule command",
				zap.String("start", start),
				zap.Int("weeks", weeks),
				zap.String("status", status))

			view, err := services.ViewSchedule(app.Ctx, app.Roster, app.Database, app.Cfg, app.Logger, start, weeks, model.Status(status))
			if err != nil {
				return fmt.Errorf("failed to view schedule: %w", err)
			}

			printSchedule(view)
			return nil
		},
	}

	cmd.Flags().Int("weeks", 0, "Number of weeks in the window (defaults to config)")
	cmd.Flags().String("status", string(model.StatusPublished), "Which rows to show: draft, published or archived")

	return cmd
}

// ListArchiveCmd creates the listArchive command
func ListArchiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listArchive",
		Short: "List archived weeks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("listArchive command")

			weeks, err := services.ListArchive(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return fmt.Errorf("failed to list archive: %w", err)
			}

			if len(weeks) == 0 {
				fmt.Println("\nNo archived weeks yet.")
				return nil
			}

			fmt.Printf("\n🗄️  Archived Weeks (%d):\n\n", len(weeks))
			fmt.Printf("%-12s  %s\n", "Week", "Shifts")
			fmt.Println("------------  ------")
			for _, w := range weeks {
				fmt.Printf("%-12s  %d\n", w.WeekStart, w.ShiftCount)
			}
			fmt.Println()

			return nil
		},
	}
}

// ViewArchiveCmd creates the viewArchive command
func ViewArchiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewArchive <week_start>",
		Short: "Show the archived grid for the week starting on a Monday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("viewArchive command", zap.String("week_start", args[0]))

			view, err := services.ViewArchive(app.Ctx, app.Roster, app.Database, app.Cfg, app.Logger, args[0])
			if err != nil {
				return fmt.Errorf("failed to view archive: %w", err)
			}

			printSchedule(view)
			return nil
		},
	}
}

func printSchedule(view *services.ScheduleView) {
	fmt.Printf("\n📅 %s\n\n", titleStyle.Render(fmt.Sprintf("Schedule (%s)", view.Status)))
	if view.ShiftCount == 0 {
		fmt.Printf("No %s shifts in this window.\n\n", view.Status)
		return
	}
	fmt.Print(formatGrid(view, termGrid))
	fmt.Printf("\n%d shifts\n\n", view.ShiftCount)
}
