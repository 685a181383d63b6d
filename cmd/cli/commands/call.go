package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasoa/confirmation-tracker/pkg/db"
)

const callTimeLayout = "2006-01-02T15:04"

// CallCmd creates the call command group
func CallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Record, edit, or delete telepastoring calls",
	}
	cmd.AddCommand(callAddCmd(), callEditCmd(), callDeleteCmd(), callOutcomesCmd())
	return cmd
}

func callAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <contact-id>",
		Short: "Record a call to a contact, attributed to the current member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			member, err := app.Session.RequireMember()
			if err != nil {
				return err
			}

			input := db.CallInsert{
				CallerMemberID:  member.ID,
				CalleeContactID: args[0],
				CallTimestamp:   time.Now(),
			}
			if at, _ := cmd.Flags().GetString("at"); at != "" {
				input.CallTimestamp, err = time.ParseInLocation(callTimeLayout, at, time.Local)
				if err != nil {
					return fmt.Errorf("failed to parse --at: %w", err)
				}
			}
			if outcome, _ := cmd.Flags().GetString("outcome"); outcome != "" {
				input.OutcomeID = &outcome
			}
			if notes, _ := cmd.Flags().GetString("notes"); notes != "" {
				input.Notes = &notes
			}

			created, err := app.Hub.CreateCall(app.Ctx, input)
			if err != nil {
				return err
			}
			fmt.Printf("Call recorded [%s]\n", created.ID)
			return nil
		},
	}
	cmd.Flags().String("at", "", "Call time, e.g. 2026-08-30T19:30 (default now)")
	cmd.Flags().String("outcome", "", "Outcome ID")
	cmd.Flags().String("notes", "", "Notes")
	return cmd
}

func callEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <call-id>",
		Short: "Overwrite a call's time, outcome, and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			at, _ := cmd.Flags().GetString("at")
			ts, err := time.ParseInLocation(callTimeLayout, at, time.Local)
			if err != nil {
				return fmt.Errorf("failed to parse --at: %w", err)
			}

			updates := db.CallUpdate{CallTimestamp: ts}
			if outcome, _ := cmd.Flags().GetString("outcome"); outcome != "" {
				updates.OutcomeID = &outcome
			}
			if notes, _ := cmd.Flags().GetString("notes"); notes != "" {
				updates.Notes = &notes
			}

			if _, err := app.Hub.UpdateCall(app.Ctx, args[0], updates); err != nil {
				return err
			}
			fmt.Println("Call updated")
			return nil
		},
	}
	cmd.Flags().String("at", "", "Call time, e.g. 2026-08-30T19:30 (required)")
	cmd.Flags().String("outcome", "", "Outcome ID (empty clears)")
	cmd.Flags().String("notes", "", "Notes (empty clears)")
	cmd.MarkFlagRequired("at")
	return cmd
}

func callDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <call-id>",
		Short: "Delete a call record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := App.Hub.DeleteCall(App.Ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Call deleted")
			return nil
		},
	}
}

func callOutcomesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outcomes",
		Short: "List the available call outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outcomes, err := App.Hub.CallOutcomes(App.Ctx)
			if err != nil {
				return fmt.Errorf("failed to load call outcomes: %w", err)
			}
			if len(outcomes) == 0 {
				fmt.Println("No outcomes configured")
				return nil
			}
			for _, o := range outcomes {
				marker := " "
				if o.IsSuccessful {
					marker = "✓"
				}
				fmt.Printf("%s %s (%s)\n", marker, o.Description, o.ID)
			}
			return nil
		},
	}
}
