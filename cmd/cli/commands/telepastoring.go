package commands

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/kasoa/confirmation-tracker/pkg/core/services"
	"github.com/kasoa/confirmation-tracker/pkg/filterstate"
)

// TelepastoringCmd creates the telepastoring command
func TelepastoringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telepastoring",
		Short: "Show outreach call coverage for the current event",
		Long: `Lists contacts matching the call filters. --filters takes the list
view's query string, e.g. "members=<id>&outcome=none&from_dt=2026-08-01T00:00".
--copy puts the shareable call-coverage summary on the clipboard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			raw, _ := cmd.Flags().GetString("filters")
			values, err := filterstate.ParseQuery(raw)
			if err != nil {
				return err
			}
			state := filterstate.ParseTelepastoring(values)

			result, err := services.Telepastoring(app.Ctx, app.Hub, app.Logger, state)
			if err != nil {
				return fmt.Errorf("failed to load telepastoring data: %w", err)
			}

			if copyText, _ := cmd.Flags().GetBool("copy"); copyText {
				text := result.FormatCallData(time.Now())
				if err := clipboard.WriteAll(text); err != nil {
					// Still print it so the report isn't lost on headless boxes.
					fmt.Println(text)
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}
				fmt.Println("Call data copied to clipboard")
				return nil
			}

			label := "called"
			if state.Outcome == "none" {
				label = "not yet called"
			}
			if len(result.Contacts) == 0 {
				fmt.Printf("No contacts %s\n", label)
				return nil
			}
			fmt.Printf("\n%d contacts %s:\n\n", len(result.Contacts), label)
			for _, c := range result.Contacts {
				number := ""
				if c.ContactNumber != nil {
					number = "  " + *c.ContactNumber
				}
				fmt.Printf("- %s%s [%s]\n", c.DisplayName(), number, c.ID)
			}
			return nil
		},
	}

	cmd.Flags().String("filters", "", "Filter query string")
	cmd.Flags().Bool("copy", false, "Copy the call-coverage summary to the clipboard")
	return cmd
}
