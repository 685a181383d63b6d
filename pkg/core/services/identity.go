package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
	"github.com/kasoa/confirmation-tracker/pkg/session"
)

// IdentityReader defines the resource reads the identity flow needs.
type IdentityReader interface {
	Events(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.Event, error)
	Members(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.Member, error)
}

// ListEvents returns all events, newest first, for the identity picker.
func ListEvents(ctx context.Context, reader IdentityReader, logger *zap.Logger) ([]db.Event, error) {
	logger.Debug("Listing events for identity selection")
	events, err := reader.Events(ctx, query.Filter{
		OrderBy: []query.Order{{Column: "event_timestamp", Ascending: false}},
	}, resources.ReadOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return events, nil
}

// SearchMembers returns members whose full name matches the search term,
// case-insensitively. An empty term returns everyone.
func SearchMembers(ctx context.Context, reader IdentityReader, logger *zap.Logger, term string) ([]db.Member, error) {
	logger.Debug("Searching members", zap.String("term", term))
	f := query.Filter{
		OrderBy: []query.Order{{Column: "full_name", Ascending: true}},
	}
	if term != "" {
		f.ILike = map[string]string{"full_name": "%" + term + "%"}
	}
	members, err := reader.Members(ctx, f, resources.ReadOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to search members: %w", err)
	}
	return members, nil
}

// SelectIdentity resolves the chosen member and event and persists them as
// the current session identity.
func SelectIdentity(ctx context.Context, reader IdentityReader, sess *session.Session, logger *zap.Logger, memberID, eventID string) error {
	members, err := reader.Members(ctx, query.Filter{
		Equals: map[string]any{"id": memberID},
	}, resources.ReadOptions{})
	if err != nil {
		return fmt.Errorf("failed to fetch member %s: %w", memberID, err)
	}
	if len(members) == 0 {
		return fmt.Errorf("member %s: %w", memberID, db.ErrNotFound)
	}

	events, err := reader.Events(ctx, query.Filter{
		Equals: map[string]any{"id": eventID},
	}, resources.ReadOptions{})
	if err != nil {
		return fmt.Errorf("failed to fetch event %s: %w", eventID, err)
	}
	if len(events) == 0 {
		return fmt.Errorf("event %s: %w", eventID, db.ErrNotFound)
	}

	if err := sess.SetIdentity(&members[0], &events[0]); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	logger.Info("Identity selected",
		zap.String("member", members[0].DisplayName()),
		zap.String("event", events[0].Name))
	return nil
}
