package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasoa/confirmation-tracker/pkg/db"
)

// VisitCmd creates the visit command group
func VisitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Record, edit, or delete in-person visits",
	}
	cmd.AddCommand(visitAddCmd(), visitEditCmd(), visitDeleteCmd())
	return cmd
}

func visitAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <contact-id>",
		Short: "Record a visit to a contact",
		Long: `Records a visit with the named contact as the primary visitee. The
current member is always a visitor; --with adds further visiting members and
--also further visited contacts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			member, err := app.Session.RequireMember()
			if err != nil {
				return err
			}

			input := db.VisitInsert{VisitTimestamp: time.Now()}
			if at, _ := cmd.Flags().GetString("at"); at != "" {
				input.VisitTimestamp, err = time.ParseInLocation(callTimeLayout, at, time.Local)
				if err != nil {
					return fmt.Errorf("failed to parse --at: %w", err)
				}
			}
			if location, _ := cmd.Flags().GetString("location"); location != "" {
				input.Location = &location
			}
			if notes, _ := cmd.Flags().GetString("notes"); notes != "" {
				input.Notes = &notes
			}

			with, _ := cmd.Flags().GetStringSlice("with")
			also, _ := cmd.Flags().GetStringSlice("also")
			visitors := append([]string{member.ID}, with...)

			visit, err := app.Hub.CreateVisit(app.Ctx, input, visitors, args[0], also)
			if err != nil {
				return err
			}
			fmt.Printf("Visit recorded [%s]\n", visit.ID)
			return nil
		},
	}
	cmd.Flags().String("at", "", "Visit time, e.g. 2026-08-30T19:30 (default now)")
	cmd.Flags().String("location", "", "Location")
	cmd.Flags().String("notes", "", "Notes")
	cmd.Flags().StringSlice("with", nil, "Additional visiting member IDs")
	cmd.Flags().StringSlice("also", nil, "Additional visited contact IDs")
	return cmd
}

func visitEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <visit-id>",
		Short: "Overwrite a visit's fields and its visitor/visitee sets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			at, _ := cmd.Flags().GetString("at")
			ts, err := time.ParseInLocation(callTimeLayout, at, time.Local)
			if err != nil {
				return fmt.Errorf("failed to parse --at: %w", err)
			}

			updates := db.VisitUpdate{VisitTimestamp: ts}
			if location, _ := cmd.Flags().GetString("location"); location != "" {
				updates.Location = &location
			}
			if notes, _ := cmd.Flags().GetString("notes"); notes != "" {
				updates.Notes = &notes
			}

			visitors, _ := cmd.Flags().GetStringSlice("visitors")
			visitees, _ := cmd.Flags().GetStringSlice("visitees")

			if _, err := app.Hub.UpdateVisit(app.Ctx, args[0], updates, visitors, visitees); err != nil {
				return err
			}
			fmt.Println("Visit updated")
			return nil
		},
	}
	cmd.Flags().String("at", "", "Visit time, e.g. 2026-08-30T19:30 (required)")
	cmd.Flags().String("location", "", "Location (empty clears)")
	cmd.Flags().String("notes", "", "Notes (empty clears)")
	cmd.Flags().StringSlice("visitors", nil, "Full replacement set of visiting member IDs")
	cmd.Flags().StringSlice("visitees", nil, "Full replacement set of visited contact IDs")
	cmd.MarkFlagRequired("at")
	cmd.MarkFlagRequired("visitors")
	cmd.MarkFlagRequired("visitees")
	return cmd
}

func visitDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <visit-id>",
		Short: "Delete a visit and its visitor/visitee links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := App.Hub.DeleteVisit(App.Ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Visit deleted")
			return nil
		},
	}
}
