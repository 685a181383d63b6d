package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kasoa/confirmation-tracker/pkg/core/services"
	"github.com/kasoa/confirmation-tracker/pkg/filterstate"
)

// MembersCmd creates the members leaderboard command
func MembersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Show the confirmations leaderboard for the current event",
		Long: `Ranks members by confirmations against target. --filters takes the
list view's query string, e.g. "bacentas=<id>&sort=conf_desc".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			raw, _ := cmd.Flags().GetString("filters")
			values, err := filterstate.ParseQuery(raw)
			if err != nil {
				return err
			}
			state := filterstate.ParseMembers(values)

			rows, err := services.Leaderboard(app.Ctx, app.Hub, app.Logger, state)
			if err != nil {
				return fmt.Errorf("failed to load leaderboard: %w", err)
			}
			if len(rows) == 0 {
				fmt.Println("No members yet")
				return nil
			}

			fmt.Printf("\n%-3s %-24s %-16s %10s %6s  %s\n",
				"#", "Member", "Bacenta", "Confirmed", "Pct", "Last confirmation")
			for i, r := range rows {
				bacenta := "-"
				if r.BacentaName != nil {
					bacenta = *r.BacentaName
				}
				last := "-"
				if r.LastConfirmationAt != nil {
					last = r.LastConfirmationAt.Format("02 Jan 15:04")
				}
				fmt.Printf("%-3d %-24s %-16s %6d/%-3d %5.0f%%  %s\n",
					i+1, r.Name, bacenta, r.Confirmations, r.Target, r.Pct*100, last)
			}
			return nil
		},
	}

	cmd.Flags().String("filters", "", "Filter query string")
	return cmd
}
