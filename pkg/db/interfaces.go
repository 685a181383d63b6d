package db

import (
	"context"
	"errors"

	"github.com/kasoa/confirmation-tracker/pkg/query"
)

// ErrNotFound is returned by detail reads that resolve to no row. Callers
// present it separately from hard backend errors.
var ErrNotFound = errors.New("not found")

// MemberStore reads staff/volunteer identities.
type MemberStore interface {
	GetMembers(ctx context.Context, f query.Filter) ([]Member, error)
}

// BacentaStore reads organizational sub-units.
type BacentaStore interface {
	GetBacentas(ctx context.Context, f query.Filter) ([]Bacenta, error)
}

// EventStore reads events and their aggregate counters.
type EventStore interface {
	GetEvents(ctx context.Context, f query.Filter) ([]Event, error)
}

// ContactStore reads and writes contact/confirmation rows.
type ContactStore interface {
	GetContacts(ctx context.Context, f query.Filter) ([]Contact, error)
	GetContactByID(ctx context.Context, id string) (*Contact, error)
	InsertContact(ctx context.Context, input ContactInsert) (*Contact, error)
	UpdateContact(ctx context.Context, id string, updates ContactUpdate) (*Contact, error)
	DeleteContact(ctx context.Context, id string) error
}

// CallStore reads and writes call records. Reads expand the caller and
// outcome relations.
type CallStore interface {
	GetCalls(ctx context.Context, f query.Filter) ([]CallWithRelations, error)
	GetCallOutcomes(ctx context.Context) ([]CallOutcome, error)
	InsertCall(ctx context.Context, input CallInsert) (*Call, error)
	UpdateCall(ctx context.Context, id string, updates CallUpdate) (*Call, error)
	DeleteCall(ctx context.Context, id string) error
}

// VisitStore reads and writes visit records and their link rows.
// ReplaceVisitVisitors and ReplaceVisitVisitees perform a full
// delete-and-reinsert of the respective join table rows for one visit.
// DeleteVisit removes the link rows before the visit row.
type VisitStore interface {
	GetVisitsByContact(ctx context.Context, contactID string) ([]VisitWithRelations, error)
	InsertVisit(ctx context.Context, input VisitInsert) (*Visit, error)
	UpdateVisit(ctx context.Context, id string, updates VisitUpdate) (*Visit, error)
	DeleteVisit(ctx context.Context, id string) error
	ReplaceVisitVisitors(ctx context.Context, visitID string, memberIDs []string) error
	ReplaceVisitVisitees(ctx context.Context, visitID string, contactIDs []string) error
}

// TargetStore reads the derived aggregate views.
type TargetStore interface {
	GetEventMemberTargets(ctx context.Context, f query.Filter) ([]EventMemberTargetWithNames, error)
	GetEventBacentaTargets(ctx context.Context, f query.Filter) ([]EventBacentaTarget, error)
	GetCumulativeConfirmations(ctx context.Context, f query.Filter) ([]CumulativeConfirmation, error)
}

// Store is the full backend contract the resource layer depends on.
type Store interface {
	MemberStore
	BacentaStore
	EventStore
	ContactStore
	CallStore
	VisitStore
	TargetStore
}
