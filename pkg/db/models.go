package db

import "time"

// Member is a staff/volunteer identity. Members are read-only from this
// layer; they are managed directly in the backend.
type Member struct {
	ID        string  `db:"id" json:"id"`
	FirstName string  `db:"first_name" json:"first_name"`
	LastName  string  `db:"last_name" json:"last_name"`
	FullName  string  `db:"full_name" json:"full_name"`
	BacentaID *string `db:"bacenta_id" json:"bacenta_id"`
}

// DisplayName prefers the precomputed full name, falling back to the parts.
func (m Member) DisplayName() string {
	if m.FullName != "" {
		return m.FullName
	}
	return m.FirstName + " " + m.LastName
}

// Bacenta is an organizational sub-unit; a member belongs to at most one.
type Bacenta struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Event is a dated occurrence with aggregate counters maintained by the
// backend.
type Event struct {
	ID                       string    `db:"id" json:"id"`
	Name                     string    `db:"name" json:"name"`
	EventTimestamp           time.Time `db:"event_timestamp" json:"event_timestamp"`
	TotalConfirmations       int       `db:"total_confirmations" json:"total_confirmations"`
	TotalConfirmationsTarget int       `db:"total_confirmations_target" json:"total_confirmations_target"`
	TotalAttendees           int       `db:"total_attendees" json:"total_attendees"`
	TotalAttendanceTarget    int       `db:"total_attendance_target" json:"total_attendance_target"`
}

// Contact is a person recorded as contacted or confirmed for an event.
// ConfirmedAt and TransportArrangedAt being non-nil is the source of truth
// for "confirmed" and "transport arranged"; there are no parallel booleans.
type Contact struct {
	ID                  string     `db:"id" json:"id"`
	EventID             string     `db:"event_id" json:"event_id"`
	ContactedByMemberID string     `db:"contacted_by_member_id" json:"contacted_by_member_id"`
	FirstName           string     `db:"first_name" json:"first_name"`
	LastName            *string    `db:"last_name" json:"last_name"`
	ContactNumber       *string    `db:"contact_number" json:"contact_number"`
	Notes               *string    `db:"notes" json:"notes"`
	Attended            bool       `db:"attended" json:"attended"`
	IsFirstTime         bool       `db:"is_first_time" json:"is_first_time"`
	ConfirmedAt         *time.Time `db:"confirmed_at" json:"confirmed_at"`
	TransportArrangedAt *time.Time `db:"transport_arranged_at" json:"transport_arranged_at"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName joins the contact's names, tolerating a missing last name.
func (c Contact) DisplayName() string {
	if c.LastName == nil || *c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + *c.LastName
}

// ContactInsert is the payload for creating a contact.
type ContactInsert struct {
	EventID             string     `validate:"required"`
	ContactedByMemberID string     `validate:"required"`
	FirstName           string     `validate:"required"`
	LastName            *string    `validate:"-"`
	ContactNumber       *string    `validate:"-"`
	Notes               *string    `validate:"-"`
	Attended            bool       `validate:"-"`
	IsFirstTime         bool       `validate:"-"`
	ConfirmedAt         *time.Time `validate:"-"`
	TransportArrangedAt *time.Time `validate:"-"`
}

// ContactUpdate overwrites the mutable contact fields. Nil pointer fields
// clear the corresponding column rather than leaving it untouched, matching
// how the edit form submits its full state.
type ContactUpdate struct {
	FirstName           string `validate:"required"`
	LastName            *string
	ContactNumber       *string
	Notes               *string
	Attended            bool
	IsFirstTime         bool
	ConfirmedAt         *time.Time
	TransportArrangedAt *time.Time
}

// CallOutcome is a lookup entity describing how a call went.
type CallOutcome struct {
	ID           string `db:"id" json:"id"`
	Description  string `db:"description" json:"description"`
	IsSuccessful bool   `db:"is_successful" json:"is_successful"`
}

// Call is an outreach phone call from a member to a contact.
type Call struct {
	ID              string    `db:"id" json:"id"`
	CallerMemberID  string    `db:"caller_member_id" json:"caller_member_id"`
	CalleeContactID string    `db:"callee_contact_id" json:"callee_contact_id"`
	CallTimestamp   time.Time `db:"call_timestamp" json:"call_timestamp"`
	OutcomeID       *string   `db:"outcome_id" json:"outcome_id"`
	Notes           *string   `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// MemberRef is the subset of member columns inlined by relation expansions.
type MemberRef struct {
	ID        string `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	FullName  string `db:"full_name" json:"full_name"`
}

// DisplayName prefers the precomputed full name.
func (m MemberRef) DisplayName() string {
	if m.FullName != "" {
		return m.FullName
	}
	return m.FirstName + " " + m.LastName
}

// ContactRef is the subset of contact columns inlined by relation expansions.
type ContactRef struct {
	ID        string  `db:"id" json:"id"`
	FirstName string  `db:"first_name" json:"first_name"`
	LastName  *string `db:"last_name" json:"last_name"`
}

// CallWithRelations is a call row with its caller and outcome expanded.
// Expansions are optional nested fields: nil when the related row is absent.
type CallWithRelations struct {
	Call
	Caller  *MemberRef   `json:"caller"`
	Outcome *CallOutcome `json:"outcome"`
}

// Visit is an in-person outreach record. Visitors (members) and visitees
// (contacts) are linked through join tables.
type Visit struct {
	ID             string    `db:"id" json:"id"`
	VisitTimestamp time.Time `db:"visit_timestamp" json:"visit_timestamp"`
	Location       *string   `db:"location" json:"location"`
	Notes          *string   `db:"notes" json:"notes"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// VisitVisitor links a visit to a member who went on it.
type VisitVisitor struct {
	VisitID  string `db:"visit_id" json:"visit_id"`
	MemberID string `db:"member_id" json:"member_id"`
}

// VisitVisitee links a visit to a contact who was visited.
type VisitVisitee struct {
	VisitID   string `db:"visit_id" json:"visit_id"`
	ContactID string `db:"contact_id" json:"contact_id"`
}

// VisitWithRelations is a visit row with its visitor and visitee link rows
// expanded into name references.
type VisitWithRelations struct {
	Visit
	Visitors []MemberRef  `json:"visitors"`
	Visitees []ContactRef `json:"visitees"`
}

// VisitInsert is the payload for creating or overwriting a visit's own row.
type VisitInsert struct {
	VisitTimestamp time.Time `validate:"required"`
	Location       *string   `validate:"-"`
	Notes          *string   `validate:"-"`
}

// VisitUpdate overwrites the mutable visit fields.
type VisitUpdate struct {
	VisitTimestamp time.Time `validate:"required"`
	Location       *string
	Notes          *string
}

// CallInsert is the payload for recording a call.
type CallInsert struct {
	CallerMemberID  string    `validate:"required"`
	CalleeContactID string    `validate:"required"`
	CallTimestamp   time.Time `validate:"required"`
	OutcomeID       *string   `validate:"-"`
	Notes           *string   `validate:"-"`
}

// CallUpdate overwrites the mutable call fields.
type CallUpdate struct {
	CallTimestamp time.Time `validate:"required"`
	OutcomeID     *string
	Notes         *string
}

// EventMemberTarget is a derived aggregate row: one member's counters and
// targets for one event, precomputed by the backend.
type EventMemberTarget struct {
	EventID             string `db:"event_id" json:"event_id"`
	MemberID            string `db:"member_id" json:"member_id"`
	ConfirmationsTarget int    `db:"confirmations_target" json:"confirmations_target"`
	AttendanceTarget    int    `db:"attendance_target" json:"attendance_target"`
	TotalConfirmations  int    `db:"total_confirmations" json:"total_confirmations"`
	TotalAttendees      int    `db:"total_attendees" json:"total_attendees"`
}

// EventMemberTargetWithNames carries the optional member/bacenta name
// expansion requested by leaderboard views.
type EventMemberTargetWithNames struct {
	EventMemberTarget
	MemberFullName string  `json:"member_full_name"`
	BacentaID      *string `json:"bacenta_id"`
	BacentaName    *string `json:"bacenta_name"`
}

// EventBacentaTarget is a derived aggregate row per bacenta per event.
type EventBacentaTarget struct {
	EventID             string  `db:"event_id" json:"event_id"`
	BacentaID           *string `db:"bacenta_id" json:"bacenta_id"`
	BacentaName         *string `db:"bacenta_name" json:"bacenta_name"`
	ConfirmationsTarget int     `db:"confirmations_target" json:"confirmations_target"`
	AttendanceTarget    int     `db:"attendance_target" json:"attendance_target"`
	TotalConfirmations  int     `db:"total_confirmations" json:"total_confirmations"`
	TotalAttendees      int     `db:"total_attendees" json:"total_attendees"`
}

// CumulativeConfirmation is one day of the running confirmation total for an
// event, from the backend's cumulative view.
type CumulativeConfirmation struct {
	EventID string    `db:"event_id" json:"event_id"`
	Day     time.Time `db:"day" json:"day"`
	Total   int       `db:"total" json:"total"`
}
