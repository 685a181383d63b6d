package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/pkg/db"
)

func TestListEvents_NewestFirst(t *testing.T) {
	hub, store, _ := newTestHub(t)
	store.Events = append(store.Events, db.Event{
		ID:             "event-2",
		Name:           "Watch Night",
		EventTimestamp: fixtureBase.AddDate(0, 6, 0),
	})

	events, err := ListEvents(context.Background(), hub, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "event-2", events[0].ID)
	assert.Equal(t, "event-1", events[1].ID)
}

func TestSearchMembers_MatchesCaseInsensitively(t *testing.T) {
	hub, _, _ := newTestHub(t)

	members, err := SearchMembers(context.Background(), hub, zap.NewNop(), "MENSAH")
	require.NoError(t, err)

	require.Len(t, members, 1)
	assert.Equal(t, "member-1", members[0].ID)
}

func TestSearchMembers_EmptyTermReturnsEveryoneSorted(t *testing.T) {
	hub, _, _ := newTestHub(t)

	members, err := SearchMembers(context.Background(), hub, zap.NewNop(), "")
	require.NoError(t, err)

	require.Len(t, members, 3)
	assert.Equal(t, "Esi Owusu", members[0].FullName)
	assert.Equal(t, "Kofi Mensah", members[1].FullName)
	assert.Equal(t, "Yaw Boateng", members[2].FullName)
}

func TestSelectIdentity_PersistsSelection(t *testing.T) {
	hub, _, sess := newTestHub(t)
	require.NoError(t, sess.Clear())

	err := SelectIdentity(context.Background(), hub, sess, zap.NewNop(), "member-2", "event-1")
	require.NoError(t, err)

	member, err := sess.RequireMember()
	require.NoError(t, err)
	assert.Equal(t, "member-2", member.ID)
	event, err := sess.RequireEvent()
	require.NoError(t, err)
	assert.Equal(t, "Harvest Service", event.Name)
}

func TestSelectIdentity_UnknownMember(t *testing.T) {
	hub, _, sess := newTestHub(t)

	err := SelectIdentity(context.Background(), hub, sess, zap.NewNop(), "nobody", "event-1")

	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSelectIdentity_UnknownEvent(t *testing.T) {
	hub, _, sess := newTestHub(t)

	err := SelectIdentity(context.Background(), hub, sess, zap.NewNop(), "member-1", "nothing")

	assert.ErrorIs(t, err, db.ErrNotFound)
}
