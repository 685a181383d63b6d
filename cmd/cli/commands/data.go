package commands

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/kasoa/confirmation-tracker/pkg/core/services"
)

// DataCmd creates the event data command
func DataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Show the current event's counters and cumulative confirmations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			result, err := services.EventData(app.Ctx, app.Hub, app.Logger)
			if err != nil {
				return fmt.Errorf("failed to load event data: %w", err)
			}

			if copyText, _ := cmd.Flags().GetBool("copy"); copyText {
				text := result.FormatSummary()
				if err := clipboard.WriteAll(text); err != nil {
					fmt.Println(text)
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}
				fmt.Println("Event summary copied to clipboard")
				return nil
			}

			fmt.Printf("\n%s\n", result.Event.Name)
			fmt.Printf("Confirmations: %d / %d\n",
				result.Event.TotalConfirmations, result.Event.TotalConfirmationsTarget)
			fmt.Printf("Attendance:    %d / %d\n",
				result.Event.TotalAttendees, result.Event.TotalAttendanceTarget)

			if len(result.ByBacenta) > 0 {
				fmt.Println("\nBy bacenta:")
				for _, g := range result.ByBacenta {
					name := "No bacenta"
					if g.BacentaName != nil {
						name = *g.BacentaName
					}
					fmt.Printf("  %-20s %d/%d confirmed, %d/%d attended\n",
						name, g.TotalConfirmations, g.ConfirmationsTarget,
						g.TotalAttendees, g.AttendanceTarget)
				}
			}

			if len(result.Cumulative) == 0 {
				fmt.Println("\nNo confirmations yet")
				return nil
			}
			fmt.Println("\nCumulative confirmations:")
			for _, p := range result.Cumulative {
				fmt.Printf("  %s  %d\n", p.Day.Format("02 Jan"), p.Total)
			}
			return nil
		},
	}

	cmd.Flags().Bool("copy", false, "Copy the event summary to the clipboard")
	return cmd
}
