package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/pkg/core/services"
)

// ListRosterCmd creates the listRoster command
func ListRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listRoster",
		Short: "List workers with their allowed and preferred locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("listRoster command")

			entries, err := services.ListRoster(app.Ctx, app.Roster, app.Cfg, app.Logger)
			if err != nil {
				return fmt.Errorf("failed to list roster: %w", err)
			}

			app.Logger.Info("Roster fetched successfully", zap.Int("count", len(entries)))

			fmt.Printf("\nFound %d workers:\n\n", len(entries))
			for _, e := range entries {
				fmt.Printf("- %s (%s)%s\n", e.Worker.Name, e.Worker.ID, rosterTags(e))
				if len(e.Allowed) > 0 {
					fmt.Printf("    allowed:   %s\n", strings.Join(e.Allowed, ", "))
				}
				if len(e.Preferred) > 0 {
					fmt.Printf("    preferred: %s\n", strings.Join(e.Preferred, ", "))
				}
			}
			fmt.Println()

			return nil
		},
	}
}

// rosterTags summarises why a worker is or is not scheduled
func rosterTags(e services.RosterEntry) string {
	var tags []string
	switch {
	case !e.Worker.IsActive:
		tags = append(tags, "inactive")
	case e.Worker.IsHelper:
		tags = append(tags, "helper")
	case e.Worker.OnSickLeave:
		tags = append(tags, "sick leave")
	}
	if e.WeekendOnly {
		tags = append(tags, "weekends only")
	}
	if len(tags) == 0 {
		return ""
	}
	return " [" + strings.Join(tags, ", ") + "]"
}
