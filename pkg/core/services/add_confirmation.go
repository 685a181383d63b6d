package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/pkg/db"
)

// AddConfirmationInput is the quick-add form payload.
type AddConfirmationInput struct {
	FirstName         string
	LastName          string
	ContactNumber     string
	Notes             string
	IsFirstTime       bool
	Confirmed         bool
	TransportArranged bool
}

// ConfirmationWriter defines the hub operations the add flow needs.
type ConfirmationWriter interface {
	CurrentMember() (*db.Member, error)
	CurrentEvent() (*db.Event, error)
	CreateContact(ctx context.Context, input db.ContactInsert) (*db.Contact, error)
}

// AddConfirmation records a new contact for the current event, attributed to
// the current member. Blank optional fields are stored as nulls, not empty
// strings.
func AddConfirmation(ctx context.Context, writer ConfirmationWriter, logger *zap.Logger, input AddConfirmationInput) (*db.Contact, error) {
	member, err := writer.CurrentMember()
	if err != nil {
		return nil, err
	}
	event, err := writer.CurrentEvent()
	if err != nil {
		return nil, err
	}

	insert := db.ContactInsert{
		EventID:             event.ID,
		ContactedByMemberID: member.ID,
		FirstName:           strings.TrimSpace(input.FirstName),
		LastName:            optionalText(input.LastName),
		ContactNumber:       optionalText(input.ContactNumber),
		Notes:               optionalText(input.Notes),
		IsFirstTime:         input.IsFirstTime,
	}
	now := time.Now()
	if input.Confirmed {
		insert.ConfirmedAt = &now
	}
	if input.TransportArranged {
		insert.TransportArrangedAt = &now
	}

	created, err := writer.CreateContact(ctx, insert)
	if err != nil {
		return nil, fmt.Errorf("failed to add confirmation: %w", err)
	}

	logger.Debug("Confirmation added",
		zap.String("contact", created.DisplayName()),
		zap.Bool("confirmed", created.ConfirmedAt != nil))
	return created, nil
}

// optionalText trims the input and returns nil for blank strings.
func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
