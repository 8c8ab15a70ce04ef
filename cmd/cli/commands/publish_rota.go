package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/venue-rota/pkg/core/services"
)

// decisionsFile is the YAML document accepted by publishRota --decisions
type decisionsFile struct {
	Decisions []services.PublishDecision `yaml:"decisions"`
}

// PublishRotaCmd creates the publishRota command
func PublishRotaCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publishRota [start]",
		Short: "Publish the window's drafts, or an explicit list of decisions",
		Long: `Publish a window. Without --decisions the window's drafts replace its published schedule.
With --decisions the published schedule is rebuilt from the YAML file, for example:

  decisions:
    - date: 2025-03-03
      location: Main Hall
      worker: Alice
    - date: 2025-03-03
      location: Foyer`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weeks, _ := cmd.Flags().GetInt("weeks")
			decisionsPath, _ := cmd.Flags().GetString("decisions")
			start := ""
			if len(args) > 0 {
				start = args[0]
			}

			app.Logger.Debug("publishRota command",
				zap.String("start", start),
				zap.Int("weeks", weeks),
				zap.String("decisions", decisionsPath))

			var decisions []services.PublishDecision
			if decisionsPath != "" {
				var err error
				decisions, err = loadDecisions(decisionsPath)
				if err != nil {
					return err
				}
			}

			result, err := services.PublishRota(app.Ctx, app.Roster, app.Database, app.Locker, app.Cfg, app.Logger, start, weeks, decisions)
			if errors.Is(err, services.ErrNothingToPublish) {
				fmt.Printf("\n⚠️  Nothing to publish: %v\n\n", err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to publish rota: %w", err)
			}

			fmt.Printf("\n✅ Rota Published Successfully\n\n")
			fmt.Printf("Window:      %s\n", result.Window)
			fmt.Printf("Published:   %d shifts\n", result.Published)
			fmt.Printf("Replaced:    %d previously published\n", result.ReplacedPublished)
			if result.DiscardedDrafts > 0 {
				fmt.Printf("Discarded:   %d drafts\n", result.DiscardedDrafts)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().Int("weeks", 0, "Number of weeks in the window (defaults to config)")
	cmd.Flags().String("decisions", "", "YAML file of decisions to publish instead of the drafts")

	return cmd
}

// loadDecisions reads a decisions file. An empty list is returned as a non-nil slice so
// that publishing it is rejected rather than treated as a draft promotion.
func loadDecisions(path string) ([]services.PublishDecision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read decisions file: %w", err)
	}

	var file decisionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse decisions file: %w", err)
	}

	if file.Decisions == nil {
		return []services.PublishDecision{}, nil
	}
	return file.Decisions, nil
}
