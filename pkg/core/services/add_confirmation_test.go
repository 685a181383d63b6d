package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/pkg/session"
)

func TestAddConfirmation_AttributesToCurrentIdentity(t *testing.T) {
	hub, store, _ := newTestHub(t)

	created, err := AddConfirmation(context.Background(), hub, zap.NewNop(), AddConfirmationInput{
		FirstName: "Ama",
	})
	require.NoError(t, err)

	assert.Equal(t, "event-1", created.EventID)
	assert.Equal(t, "member-1", created.ContactedByMemberID)
	require.Len(t, store.Contacts, 1)
}

func TestAddConfirmation_BlankOptionalsStoredAsNull(t *testing.T) {
	hub, _, _ := newTestHub(t)

	created, err := AddConfirmation(context.Background(), hub, zap.NewNop(), AddConfirmationInput{
		FirstName:     "  Ama  ",
		LastName:      "   ",
		ContactNumber: "",
		Notes:         "",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ama", created.FirstName)
	assert.Nil(t, created.LastName)
	assert.Nil(t, created.ContactNumber)
	assert.Nil(t, created.Notes)
	assert.Equal(t, "Ama", created.DisplayName())
}

func TestAddConfirmation_FlagsSetTimestamps(t *testing.T) {
	hub, _, _ := newTestHub(t)

	created, err := AddConfirmation(context.Background(), hub, zap.NewNop(), AddConfirmationInput{
		FirstName:         "Ama",
		Confirmed:         true,
		TransportArranged: true,
		IsFirstTime:       true,
	})
	require.NoError(t, err)

	assert.NotNil(t, created.ConfirmedAt)
	assert.NotNil(t, created.TransportArrangedAt)
	assert.True(t, created.IsFirstTime)
}

func TestAddConfirmation_UnconfirmedLeavesTimestampsNil(t *testing.T) {
	hub, _, _ := newTestHub(t)

	created, err := AddConfirmation(context.Background(), hub, zap.NewNop(), AddConfirmationInput{
		FirstName: "Ama",
	})
	require.NoError(t, err)

	assert.Nil(t, created.ConfirmedAt)
	assert.Nil(t, created.TransportArrangedAt)
}

func TestAddConfirmation_NoIdentitySelected(t *testing.T) {
	hub, store, sess := newTestHub(t)
	require.NoError(t, sess.Clear())

	_, err := AddConfirmation(context.Background(), hub, zap.NewNop(), AddConfirmationInput{
		FirstName: "Ama",
	})

	assert.ErrorIs(t, err, session.ErrNoCurrentMember)
	assert.Empty(t, store.Contacts)
}
