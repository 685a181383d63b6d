package commands

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasoa/confirmation-tracker/pkg/core/services"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
)

// LiveCmd creates the live attendance command
func LiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Show live attendance for the current event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			watch, _ := cmd.Flags().GetBool("watch")

			// Polling always wants authoritative counts.
			opts := resources.ReadOptions{StaleTTL: -1}

			printSnapshot := func() {
				result, err := services.LiveAttendance(app.Ctx, app.Hub, app.Logger, opts)
				if err != nil {
					fmt.Println("Failed to load attendance")
					return
				}
				fmt.Printf("\n[%s] Attended %d / %d (%d%%)\n",
					time.Now().Format("15:04:05"), result.Attended, result.Advanced, result.Percent)
				for _, g := range result.ByBacenta {
					name := "No bacenta"
					if g.BacentaName != nil {
						name = *g.BacentaName
					}
					fmt.Printf("  %-20s %d/%d\n", name, g.TotalAttendees, g.AttendanceTarget)
				}
				if len(result.RecentArrivals) > 0 {
					fmt.Println("  Just arrived:")
					for _, c := range result.RecentArrivals {
						fmt.Printf("    - %s\n", c.DisplayName())
					}
				}
			}

			printSnapshot()
			if !watch {
				return nil
			}

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)

			ticker := time.NewTicker(app.Cfg.LivePollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					printSnapshot()
				case <-interrupt:
					return nil
				case <-app.Ctx.Done():
					return app.Ctx.Err()
				}
			}
		},
	}

	cmd.Flags().Bool("watch", false, "Keep polling until interrupted")
	return cmd
}
