package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/filterstate"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
)

// ContactsCmd creates the contacts command
func ContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List the current event's contacts",
		Long: `Lists contacts for the current event. --filters takes the same query
string the list view uses, e.g. "members=<id>&status=confirmed&sort=name_asc".
--edit overwrites a contact's fields with the given flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := App
			raw, _ := cmd.Flags().GetString("filters")
			values, err := filterstate.ParseQuery(raw)
			if err != nil {
				return err
			}
			state := filterstate.ParseContacts(values)
			if editID, _ := cmd.Flags().GetString("edit"); editID != "" {
				state.EditID = editID
			}

			if state.EditID != "" {
				return editContact(cmd, state.EditID)
			}

			contacts, err := app.Hub.Contacts(app.Ctx, state.Filter(), resources.ReadOptions{})
			if err != nil {
				return fmt.Errorf("failed to load contacts: %w", err)
			}
			contacts = applyStatus(contacts, state.Status)

			if len(contacts) == 0 {
				fmt.Println("No contacts yet")
				return nil
			}
			fmt.Printf("\nFound %d contacts:\n\n", len(contacts))
			for _, c := range contacts {
				fmt.Printf("- %s%s [%s]\n", c.DisplayName(), contactBadges(c), c.ID)
			}
			return nil
		},
	}

	cmd.Flags().String("filters", "", "Filter query string")
	cmd.Flags().String("edit", "", "Contact ID to edit")
	cmd.Flags().String("first-name", "", "First name")
	cmd.Flags().String("last-name", "", "Last name (empty clears)")
	cmd.Flags().String("number", "", "Contact number (empty clears)")
	cmd.Flags().String("notes", "", "Notes (empty clears)")
	cmd.Flags().Bool("attended", false, "Attended")
	cmd.Flags().Bool("first-time", false, "First-timer")
	cmd.Flags().Bool("confirmed", false, "Confirmed")
	cmd.Flags().Bool("transport", false, "Transport arranged")
	return cmd
}

// editContact submits a full overwrite built from the stored row plus the
// flags that were explicitly set.
func editContact(cmd *cobra.Command, id string) error {
	app := App
	existing, err := app.Hub.ContactByID(app.Ctx, id, resources.ReadOptions{StaleTTL: -1})
	if err != nil {
		return fmt.Errorf("failed to load contact %s: %w", id, err)
	}

	updates := db.ContactUpdate{
		FirstName:           existing.FirstName,
		LastName:            existing.LastName,
		ContactNumber:       existing.ContactNumber,
		Notes:               existing.Notes,
		Attended:            existing.Attended,
		IsFirstTime:         existing.IsFirstTime,
		ConfirmedAt:         existing.ConfirmedAt,
		TransportArrangedAt: existing.TransportArrangedAt,
	}

	flags := cmd.Flags()
	if flags.Changed("first-name") {
		updates.FirstName, _ = flags.GetString("first-name")
	}
	if flags.Changed("last-name") {
		updates.LastName = optionalFlag(flags.Lookup("last-name").Value.String())
	}
	if flags.Changed("number") {
		updates.ContactNumber = optionalFlag(flags.Lookup("number").Value.String())
	}
	if flags.Changed("notes") {
		updates.Notes = optionalFlag(flags.Lookup("notes").Value.String())
	}
	if flags.Changed("attended") {
		updates.Attended, _ = flags.GetBool("attended")
	}
	if flags.Changed("first-time") {
		updates.IsFirstTime, _ = flags.GetBool("first-time")
	}
	now := time.Now()
	if flags.Changed("confirmed") {
		if confirmed, _ := flags.GetBool("confirmed"); confirmed {
			if updates.ConfirmedAt == nil {
				updates.ConfirmedAt = &now
			}
		} else {
			updates.ConfirmedAt = nil
		}
	}
	if flags.Changed("transport") {
		if transport, _ := flags.GetBool("transport"); transport {
			if updates.TransportArrangedAt == nil {
				updates.TransportArrangedAt = &now
			}
		} else {
			updates.TransportArrangedAt = nil
		}
	}

	updated, err := app.Hub.UpdateContact(app.Ctx, id, updates)
	if err != nil {
		return err
	}
	fmt.Printf("Updated %s%s\n", updated.DisplayName(), contactBadges(*updated))
	return nil
}

func applyStatus(contacts []db.Contact, status string) []db.Contact {
	if status == "" || status == filterstate.StatusAll {
		return contacts
	}
	out := contacts[:0:0]
	for _, c := range contacts {
		switch status {
		case filterstate.StatusConfirmed:
			if c.ConfirmedAt != nil {
				out = append(out, c)
			}
		case filterstate.StatusUnconfirmed:
			if c.ConfirmedAt == nil {
				out = append(out, c)
			}
		case filterstate.StatusTransport:
			if c.TransportArrangedAt != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

func contactBadges(c db.Contact) string {
	badges := ""
	if c.ConfirmedAt != nil {
		badges += " ✓confirmed"
	}
	if c.TransportArrangedAt != nil {
		badges += " 🚌transport"
	}
	if c.Attended {
		badges += " ●attended"
	}
	if c.IsFirstTime {
		badges += " ★first-time"
	}
	return badges
}

func optionalFlag(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
