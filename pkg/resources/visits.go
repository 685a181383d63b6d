package resources

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/pkg/db"
)

// CreateVisit records a visit: the base row first, then the visitor links,
// then the visitee links with the primary contact first and any extra
// contacts deduplicated after it.
func (h *Hub) CreateVisit(ctx context.Context, input db.VisitInsert, visitorMemberIDs []string, primaryContactID string, extraContactIDs []string) (*db.Visit, error) {
	if err := h.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid visit: %w", err)
	}
	if primaryContactID == "" {
		return nil, fmt.Errorf("visit requires a primary contact")
	}

	visit, err := h.store.InsertVisit(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create visit: %w", err)
	}
	if err := h.store.ReplaceVisitVisitors(ctx, visit.ID, dedupe(visitorMemberIDs)); err != nil {
		return nil, fmt.Errorf("failed to link visit visitors: %w", err)
	}
	visitees := dedupe(append([]string{primaryContactID}, extraContactIDs...))
	if err := h.store.ReplaceVisitVisitees(ctx, visit.ID, visitees); err != nil {
		return nil, fmt.Errorf("failed to link visit visitees: %w", err)
	}
	h.cache.Invalidate(ResVisits)

	h.logger.Info("visit recorded",
		zap.String("visit_id", visit.ID),
		zap.Int("visitors", len(dedupe(visitorMemberIDs))),
		zap.Int("visitees", len(visitees)))
	return visit, nil
}

// UpdateVisit overwrites the visit row and rewrites both link sets. Edits to
// the same visit are serialized so the final link rows always reflect the
// last submitted edit with no duplicates.
func (h *Hub) UpdateVisit(ctx context.Context, id string, updates db.VisitUpdate, visitorMemberIDs, visiteeContactIDs []string) (*db.Visit, error) {
	if err := h.validate.Struct(updates); err != nil {
		return nil, fmt.Errorf("invalid visit update: %w", err)
	}

	var updated *db.Visit
	err := h.visitOps.run(id, func() error {
		v, err := h.store.UpdateVisit(ctx, id, updates)
		if err != nil {
			return fmt.Errorf("failed to update visit %s: %w", id, err)
		}
		if err := h.store.ReplaceVisitVisitors(ctx, id, dedupe(visitorMemberIDs)); err != nil {
			return fmt.Errorf("failed to rewrite visit visitors: %w", err)
		}
		if err := h.store.ReplaceVisitVisitees(ctx, id, dedupe(visiteeContactIDs)); err != nil {
			return fmt.Errorf("failed to rewrite visit visitees: %w", err)
		}
		updated = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.cache.Invalidate(ResVisits)
	return updated, nil
}

// DeleteVisit removes a visit; link rows go first.
func (h *Hub) DeleteVisit(ctx context.Context, id string) error {
	err := h.visitOps.run(id, func() error {
		return h.store.DeleteVisit(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete visit %s: %w", id, err)
	}
	h.cache.Invalidate(ResVisits)
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
