package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/pkg/core/services"
)

// GenerateRotaCmd creates the generateRota command
func GenerateRotaCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateRota [start]",
		Short: "Generate draft shifts for a window (defaults to the next Monday)",
		Long: `Run the allocator over the planning window and save the result as drafts.
A window that is already published is skipped unless --force is given.
With --preview nothing is written and the proposed schedule is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weeks, _ := cmd.Flags().GetInt("weeks")
			preview, _ := cmd.Flags().GetBool("preview")
			force, _ := cmd.Flags().GetBool("force")
			respectExisting, _ := cmd.Flags().GetBool("respect-existing")

			opts := services.GenerateOptions{
				Weeks:           weeks,
				Preview:         preview,
				Force:           force,
				RespectExisting: respectExisting,
			}
			if len(args) > 0 {
				opts.Start = args[0]
			}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetInt64("seed")
				opts.Seed = &seed
			}

			app.Logger.Debug("generateRota command",
				zap.String("start", opts.Start),
				zap.Int("weeks", weeks),
				zap.Bool("preview", preview),
				zap.Bool("force", force),
				zap.Bool("respect_existing", respectExisting))

			result, err := services.GenerateRota(app.Ctx, app.Roster, app.Database, app.Locker, app.Cfg, app.Logger, opts)
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			fmt.Printf("\n🎯 Rota Generation\n\n")
			fmt.Printf("Window:      %s\n", result.Window)

			if result.Skipped {
				fmt.Printf("Status:      ⏭️  SKIPPED (window is already published, use --force to regenerate drafts)\n\n")
				return nil
			}

			if preview {
				fmt.Printf("Mode:        🧪 PREVIEW (not saved)\n")
			} else {
				fmt.Printf("Status:      ✅ SAVED as drafts\n")
				fmt.Printf("Replaced:    %d drafts\n", result.DeletedDrafts)
				fmt.Printf("Inserted:    %d drafts\n", result.InsertedDrafts)
			}
			fmt.Printf("Filled:      %d\n", result.FilledCount)
			fmt.Printf("Open:        %d\n", result.OpenCount)
			if respectExisting {
				fmt.Printf("Kept:        %d existing assignments\n", result.FrozenCount)
			}
			fmt.Println()

			if preview {
				printPreview(result.Preview)
			}

			printValidationErrors(result.ValidationErrors)

			return nil
		},
	}

	cmd.Flags().Int("weeks", 0, "Number of weeks in the window (defaults to config)")
	cmd.Flags().Bool("preview", false, "Print the schedule without saving")
	cmd.Flags().Bool("force", false, "Generate drafts even if the window is already published")
	cmd.Flags().Bool("respect-existing", false, "Keep assignments already in the window")
	cmd.Flags().Int64("seed", 0, "Seed for shuffling tied candidates")

	return cmd
}
