package resources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
)

func validContactInsert() db.ContactInsert {
	return db.ContactInsert{
		EventID:             "event-1",
		ContactedByMemberID: "member-1",
		FirstName:           "Ama",
	}
}

func TestCreateContact_RejectsInvalidInput(t *testing.T) {
	hub, store, _ := newTestHub(t)

	_, err := hub.CreateContact(context.Background(), db.ContactInsert{EventID: "event-1"})

	assert.ErrorContains(t, err, "invalid contact")
	assert.Empty(t, store.Contacts)
}

func TestCreateContact_InvalidatesContactReads(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	before, err := hub.Contacts(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	require.Len(t, before, 2)

	_, err = hub.CreateContact(context.Background(), validContactInsert())
	require.NoError(t, err)

	after, err := hub.Contacts(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)

	assert.Len(t, after, 3)
	assert.Equal(t, 2, store.ReadCount("contacts"))
}

func TestCreateContact_CountersConvergeAfterSettle(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	events, err := hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, events[0].TotalConfirmations)

	// An unconfirmed contact still counts: every contact row is a
	// confirmation toward the totals.
	_, err = hub.CreateContact(context.Background(), validContactInsert())
	require.NoError(t, err)

	events, err = hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, events[0].TotalConfirmations)
	assert.Equal(t, 2, store.ReadCount("events"))
}

func TestCreateContact_FailedWriteRollsBackCounters(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	events, err := hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, events[0].TotalConfirmations)

	store.FailNext("InsertContact", errors.New("backend down"))
	_, err = hub.CreateContact(context.Background(), validContactInsert())
	require.Error(t, err)

	// The cached counters are restored exactly; no refetch happens.
	events, err = hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, events[0].TotalConfirmations)
	assert.Equal(t, 1, store.ReadCount("events"))
}

func TestCreateContact_FailedWriteRollsBackMemberTargets(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	targets, err := hub.EventMemberTargets(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	var before int
	for _, row := range targets {
		if row.MemberID == "member-1" {
			before = row.TotalConfirmations
		}
	}

	store.FailNext("InsertContact", errors.New("backend down"))
	_, err = hub.CreateContact(context.Background(), validContactInsert())
	require.Error(t, err)

	targets, err = hub.EventMemberTargets(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	for _, row := range targets {
		if row.MemberID == "member-1" {
			assert.Equal(t, before, row.TotalConfirmations)
		}
	}
	assert.Equal(t, 1, store.ReadCount("event_member_targets"))
}

func TestUpdateContact_OverwritesAndClearsFields(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)
	notes := "brought a friend"
	now := time.Now()
	_, err := hub.UpdateContact(context.Background(), "contact-1", db.ContactUpdate{
		FirstName:   "Ama",
		Notes:       &notes,
		ConfirmedAt: &now,
	})
	require.NoError(t, err)

	updated, err := hub.ContactByID(context.Background(), "contact-1", ReadOptions{})
	require.NoError(t, err)

	require.NotNil(t, updated.Notes)
	assert.Equal(t, "brought a friend", *updated.Notes)
	require.NotNil(t, updated.ConfirmedAt)
	// Omitted pointer fields clear the stored value.
	assert.Nil(t, updated.LastName)
}

func TestUpdateContact_InvalidatesAggregates(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	_, err := hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)

	_, err = hub.UpdateContact(context.Background(), "contact-1", db.ContactUpdate{FirstName: "Ama", Attended: true})
	require.NoError(t, err)

	events, err := hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, events[0].TotalAttendees)
	assert.Equal(t, 2, store.ReadCount("events"))
}

func TestDeleteContact_CountersConverge(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	events, err := hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, events[0].TotalConfirmations)

	require.NoError(t, hub.DeleteContact(context.Background(), "contact-1"))

	events, err = hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, events[0].TotalConfirmations)
}

func TestDeleteContact_FailedDeleteRollsBack(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	events, err := hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, events[0].TotalConfirmations)

	store.FailNext("DeleteContact", errors.New("backend down"))
	err = hub.DeleteContact(context.Background(), "contact-1")
	require.Error(t, err)

	events, err = hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, events[0].TotalConfirmations)
	assert.Equal(t, 1, store.ReadCount("events"))
}

func TestCreateCall_InvalidatesCallReads(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	calls, err := hub.CallsByContact(context.Background(), "contact-1", ReadOptions{})
	require.NoError(t, err)
	require.Empty(t, calls)

	_, err = hub.CreateCall(context.Background(), db.CallInsert{
		CallerMemberID:  "member-1",
		CalleeContactID: "contact-1",
		CallTimestamp:   time.Now(),
	})
	require.NoError(t, err)

	calls, err = hub.CallsByContact(context.Background(), "contact-1", ReadOptions{})
	require.NoError(t, err)

	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Caller)
	assert.Equal(t, "Kofi Mensah", calls[0].Caller.DisplayName())
	assert.Equal(t, 2, store.ReadCount("calls"))
}

func TestCreateCall_RejectsInvalidInput(t *testing.T) {
	hub, _, _ := newTestHub(t)

	_, err := hub.CreateCall(context.Background(), db.CallInsert{CallerMemberID: "member-1"})

	assert.ErrorContains(t, err, "invalid call")
}

func TestUpdateCall_OverwritesOutcome(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)
	outcome := "outcome-answered"
	created, err := hub.CreateCall(context.Background(), db.CallInsert{
		CallerMemberID:  "member-1",
		CalleeContactID: "contact-1",
		CallTimestamp:   time.Now(),
	})
	require.NoError(t, err)

	_, err = hub.UpdateCall(context.Background(), created.ID, db.CallUpdate{
		CallTimestamp: created.CallTimestamp,
		OutcomeID:     &outcome,
	})
	require.NoError(t, err)

	calls, err := hub.CallsByContact(context.Background(), "contact-1", ReadOptions{})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Outcome)
	assert.Equal(t, "Answered", calls[0].Outcome.Description)
}

func TestDeleteCall_RemovesRow(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)
	created, err := hub.CreateCall(context.Background(), db.CallInsert{
		CallerMemberID:  "member-1",
		CalleeContactID: "contact-1",
		CallTimestamp:   time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, hub.DeleteCall(context.Background(), created.ID))

	calls, err := hub.CallsByContact(context.Background(), "contact-1", ReadOptions{})
	require.NoError(t, err)
	assert.Empty(t, calls)
}
