package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kasoa/confirmation-tracker/pkg/core/services"
)

// IdentityCmd creates the identity command
func IdentityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Show or change who you are acting as",
		Long: `Without flags, prints the current member/event selection and the
available events. Use --search to find your member record, then --member and
--event together to select and persist your identity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			search, _ := cmd.Flags().GetString("search")
			memberID, _ := cmd.Flags().GetString("member")
			eventID, _ := cmd.Flags().GetString("event")

			if memberID != "" || eventID != "" {
				if memberID == "" || eventID == "" {
					return fmt.Errorf("--member and --event must be given together")
				}
				if err := services.SelectIdentity(app.Ctx, app.Hub, app.Session, app.Logger, memberID, eventID); err != nil {
					return err
				}
				fmt.Printf("Now acting as %s for %s\n",
					app.Session.Member().DisplayName(), app.Session.Event().Name)
				return nil
			}

			if search != "" {
				members, err := services.SearchMembers(app.Ctx, app.Hub, app.Logger, search)
				if err != nil {
					return err
				}
				if len(members) == 0 {
					fmt.Println("No members match")
					return nil
				}
				fmt.Printf("\nFound %d members:\n\n", len(members))
				for _, m := range members {
					fmt.Printf("- %s (%s)\n", m.DisplayName(), m.ID)
				}
				return nil
			}

			if member := app.Session.Member(); member != nil {
				fmt.Printf("Current member: %s\n", member.DisplayName())
			} else {
				fmt.Println("Current member: none selected")
			}
			if event := app.Session.Event(); event != nil {
				fmt.Printf("Current event:  %s (%s)\n", event.Name, event.EventTimestamp.Format("02 Jan 2006"))
			} else {
				fmt.Println("Current event:  none selected")
			}

			events, err := services.ListEvents(app.Ctx, app.Hub, app.Logger)
			if err != nil {
				fmt.Println("Failed to load events")
				return nil
			}
			if len(events) == 0 {
				fmt.Println("\nNo events yet")
				return nil
			}
			fmt.Printf("\nEvents:\n")
			for _, e := range events {
				fmt.Printf("- %s (%s) [%s]\n", e.Name, e.EventTimestamp.Format("02 Jan 2006"), e.ID)
			}
			return nil
		},
	}

	cmd.Flags().String("search", "", "Search members by name")
	cmd.Flags().String("member", "", "Member ID to act as")
	cmd.Flags().String("event", "", "Event ID to work on")
	return cmd
}
