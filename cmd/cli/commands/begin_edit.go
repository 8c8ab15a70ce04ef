package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/pkg/core/services"
)

// BeginEditCmd creates the beginEdit command
func BeginEditCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beginEdit [start]",
		Short: "Copy the published schedule into drafts for editing",
		Long: `Prepare drafts for editing. Published shifts are copied into fresh drafts.
An unpublished window keeps its drafts, or gets generated drafts if it has none.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weeks, _ := cmd.Flags().GetInt("weeks")
			start := ""
			if len(args) > 0 {
				start = args[0]
			}

			app.Logger.Debug("beginEdit command", zap.String("start", start), zap.Int("weeks", weeks))

			result, err := services.BeginEdit(app.Ctx, app.Roster, app.Database, app.Locker, app.Cfg, app.Logger, start, weeks)
			if err != nil {
				return fmt.Errorf("failed to begin edit: %w", err)
			}

			fmt.Printf("\n✏️  Drafts Ready\n\n")
			fmt.Printf("Window:      %s\n", result.Window)
			switch {
			case result.Generated != nil:
				fmt.Printf("Source:      generated (window had no shifts)\n")
				fmt.Printf("Filled:      %d\n", result.Generated.FilledCount)
				fmt.Printf("Open:        %d\n", result.Generated.OpenCount)
			case result.KeptDrafts > 0:
				fmt.Printf("Source:      existing drafts kept (%d)\n", result.KeptDrafts)
			default:
				fmt.Printf("Source:      published schedule\n")
				fmt.Printf("Copied:      %d shifts\n", result.ClonedShifts)
				fmt.Printf("Replaced:    %d drafts\n", result.DeletedDrafts)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().Int("weeks", 0, "Number of weeks in the window (defaults to config)")

	return cmd
}
