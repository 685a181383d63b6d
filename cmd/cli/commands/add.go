package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kasoa/confirmation-tracker/pkg/core/services"
)

// AddCmd creates the add command
func AddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new contact/confirmation for the current event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			input := services.AddConfirmationInput{}
			input.FirstName, _ = cmd.Flags().GetString("first-name")
			input.LastName, _ = cmd.Flags().GetString("last-name")
			input.ContactNumber, _ = cmd.Flags().GetString("number")
			input.Notes, _ = cmd.Flags().GetString("notes")
			input.IsFirstTime, _ = cmd.Flags().GetBool("first-time")
			input.Confirmed, _ = cmd.Flags().GetBool("confirmed")
			input.TransportArranged, _ = cmd.Flags().GetBool("transport")

			created, err := services.AddConfirmation(app.Ctx, app.Hub, app.Logger, input)
			if err != nil {
				return err
			}

			status := "contacted"
			if created.ConfirmedAt != nil {
				status = "confirmed"
			}
			fmt.Printf("Added %s (%s) [%s]\n", created.DisplayName(), status, created.ID)
			return nil
		},
	}

	cmd.Flags().String("first-name", "", "First name (required)")
	cmd.Flags().String("last-name", "", "Last name")
	cmd.Flags().String("number", "", "Contact number")
	cmd.Flags().String("notes", "", "Notes")
	cmd.Flags().Bool("first-time", false, "Mark as a first-timer")
	cmd.Flags().Bool("confirmed", false, "Mark as confirmed")
	cmd.Flags().Bool("transport", false, "Mark transport as arranged")
	cmd.MarkFlagRequired("first-name")
	return cmd
}
