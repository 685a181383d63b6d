package resources

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/pkg/cache"
	"github.com/kasoa/confirmation-tracker/pkg/db"
)

// CreateContact validates and inserts a contact. Every contact row counts
// toward the event's and member's confirmation totals, so those counters in
// cached views are bumped optimistically before the write, rolled back if it
// fails, and replaced by an authoritative refetch once it settles.
func (h *Hub) CreateContact(ctx context.Context, input db.ContactInsert) (*db.Contact, error) {
	if err := h.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid contact: %w", err)
	}

	op := h.cache.BeginOptimistic(ResEvents, ResMemberTargets, ResBacentaTargets)
	h.patchConfirmationCounters(op, input.EventID, input.ContactedByMemberID, 1)

	created, err := h.store.InsertContact(ctx, input)
	if err != nil {
		op.Rollback()
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	op.Settle()
	h.cache.Invalidate(ResContacts, ResCumulative)

	h.logger.Info("contact created",
		zap.String("contact_id", created.ID),
		zap.String("event_id", created.EventID),
		zap.Bool("confirmed", created.ConfirmedAt != nil))
	return created, nil
}

// UpdateContact overwrites a contact's mutable fields. The row count (and so
// the confirmation counters) is unchanged, so no optimistic patch applies.
func (h *Hub) UpdateContact(ctx context.Context, id string, updates db.ContactUpdate) (*db.Contact, error) {
	if err := h.validate.Struct(updates); err != nil {
		return nil, fmt.Errorf("invalid contact update: %w", err)
	}

	updated, err := h.store.UpdateContact(ctx, id, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact %s: %w", id, err)
	}
	h.cache.Invalidate(ResContacts, ResEvents, ResMemberTargets, ResBacentaTargets, ResCumulative)

	h.logger.Info("contact updated", zap.String("contact_id", id))
	return updated, nil
}

// DeleteContact removes a contact and its dependent records.
func (h *Hub) DeleteContact(ctx context.Context, id string) error {
	existing, err := h.store.GetContactByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load contact %s: %w", id, err)
	}

	op := h.cache.BeginOptimistic(ResEvents, ResMemberTargets, ResBacentaTargets)
	h.patchConfirmationCounters(op, existing.EventID, existing.ContactedByMemberID, -1)

	if err := h.store.DeleteContact(ctx, id); err != nil {
		op.Rollback()
		return fmt.Errorf("failed to delete contact %s: %w", id, err)
	}
	op.Settle()
	h.cache.Invalidate(ResContacts, ResCalls, ResVisits, ResCumulative)

	h.logger.Info("contact deleted", zap.String("contact_id", id))
	return nil
}

// CreateCall validates and records a call.
func (h *Hub) CreateCall(ctx context.Context, input db.CallInsert) (*db.Call, error) {
	if err := h.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid call: %w", err)
	}
	created, err := h.store.InsertCall(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create call: %w", err)
	}
	h.cache.Invalidate(ResCalls)
	h.logger.Info("call recorded",
		zap.String("call_id", created.ID),
		zap.String("contact_id", created.CalleeContactID))
	return created, nil
}

// UpdateCall overwrites a call's mutable fields.
func (h *Hub) UpdateCall(ctx context.Context, id string, updates db.CallUpdate) (*db.Call, error) {
	if err := h.validate.Struct(updates); err != nil {
		return nil, fmt.Errorf("invalid call update: %w", err)
	}
	updated, err := h.store.UpdateCall(ctx, id, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update call %s: %w", id, err)
	}
	h.cache.Invalidate(ResCalls)
	return updated, nil
}

// DeleteCall removes a call record.
func (h *Hub) DeleteCall(ctx context.Context, id string) error {
	if err := h.store.DeleteCall(ctx, id); err != nil {
		return fmt.Errorf("failed to delete call %s: %w", id, err)
	}
	h.cache.Invalidate(ResCalls)
	return nil
}

func (h *Hub) patchConfirmationCounters(op *cache.Optimistic, eventID, memberID string, delta int) {
	op.Patch(ResEvents, func(data any) (any, bool) {
		events, ok := data.([]db.Event)
		if !ok {
			return data, false
		}
		changed := false
		next := make([]db.Event, len(events))
		copy(next, events)
		for i := range next {
			if next[i].ID == eventID {
				next[i].TotalConfirmations += delta
				changed = true
			}
		}
		return next, changed
	})
	op.Patch(ResMemberTargets, func(data any) (any, bool) {
		targets, ok := data.([]db.EventMemberTargetWithNames)
		if !ok {
			return data, false
		}
		changed := false
		next := make([]db.EventMemberTargetWithNames, len(targets))
		copy(next, targets)
		for i := range next {
			if next[i].EventID == eventID && next[i].MemberID == memberID {
				next[i].TotalConfirmations += delta
				changed = true
			}
		}
		return next, changed
	})
}
