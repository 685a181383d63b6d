package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kasoa/confirmation-tracker/pkg/core/services"
	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
)

// ContactCmd creates the contact detail command
func ContactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contact <id>",
		Short: "Show one contact with their outreach timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			id := args[0]

			contact, err := app.Hub.ContactByID(app.Ctx, id, resources.ReadOptions{})
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					fmt.Println("Contact not found")
					return nil
				}
				return fmt.Errorf("failed to load contact: %w", err)
			}

			fmt.Printf("\n%s%s\n", contact.DisplayName(), contactBadges(*contact))
			if contact.ContactNumber != nil {
				fmt.Printf("Number: %s\n", *contact.ContactNumber)
			}
			if contact.Notes != nil {
				fmt.Printf("Notes:  %s\n", *contact.Notes)
			}
			fmt.Printf("Added:  %s\n", contact.CreatedAt.Format("02 Jan 2006 15:04"))

			// Timeline failures don't hide the detail section above.
			entries, err := services.ContactTimeline(app.Ctx, app.Hub, app.Logger, id)
			if err != nil {
				fmt.Println("\nFailed to load timeline")
				return nil
			}
			if len(entries) == 0 {
				fmt.Println("\nNo calls or visits yet")
				return nil
			}
			fmt.Printf("\nTimeline (%d):\n", len(entries))
			for _, e := range entries {
				switch e.Kind {
				case services.TimelineCall:
					outcome := "no outcome"
					if e.Call.Outcome != nil {
						outcome = e.Call.Outcome.Description
					}
					caller := "unknown"
					if e.Call.Caller != nil {
						caller = e.Call.Caller.DisplayName()
					}
					fmt.Printf("- %s  call by %s (%s) [%s]\n",
						e.Timestamp.Format("02 Jan 15:04"), caller, outcome, e.Call.ID)
				case services.TimelineVisit:
					where := ""
					if e.Visit.Location != nil {
						where = " at " + *e.Visit.Location
					}
					fmt.Printf("- %s  visit by %d member(s)%s [%s]\n",
						e.Timestamp.Format("02 Jan 15:04"), len(e.Visit.Visitors), where, e.Visit.ID)
				}
			}
			return nil
		},
	}
}
