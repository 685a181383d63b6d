// Package resources is the data-access layer every view reads through. Each
// resource has one read function combining the backend store, the shared
// query cache, and the current session's event scope, so any two views
// requesting the same data share one cached result.
package resources

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/pkg/cache"
	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
	"github.com/kasoa/confirmation-tracker/pkg/session"
)

// Resource names, used as cache partitions and invalidation targets.
const (
	ResMembers        = "members"
	ResBacentas       = "bacentas"
	ResEvents         = "events"
	ResContacts       = "contacts"
	ResCalls          = "calls"
	ResCallOutcomes   = "call_outcomes"
	ResVisits         = "visits"
	ResMemberTargets  = "event_member_targets"
	ResBacentaTargets = "event_bacenta_targets"
	ResCumulative     = "cumulative_confirmations"
)

// DefaultStaleTTL is how long a cached read stays fresh when the caller does
// not say otherwise.
const DefaultStaleTTL = 30 * time.Second

// ReadOptions tune one read. The zero value means: enabled, default
// freshness, scoped to the current event where the resource supports it.
type ReadOptions struct {
	// StaleTTL overrides DefaultStaleTTL; negative forces a refetch.
	StaleTTL time.Duration

	// NoEventScope disables current-event scoping for resources that carry
	// an event_id column. Scoping is also bypassed automatically when the
	// filter already pins event_id.
	NoEventScope bool
}

func (o ReadOptions) ttl() time.Duration {
	if o.StaleTTL == 0 {
		return DefaultStaleTTL
	}
	return o.StaleTTL
}

// Hub wires the store, cache, and session together for all reads and
// mutations.
type Hub struct {
	store    db.Store
	cache    *cache.Cache
	session  *session.Session
	logger   *zap.Logger
	validate *validator.Validate
	visitOps *chain
}

// NewHub creates the resource hub.
func NewHub(store db.Store, c *cache.Cache, sess *session.Session, logger *zap.Logger) *Hub {
	return &Hub{
		store:    store,
		cache:    c,
		session:  sess,
		logger:   logger,
		validate: validator.New(),
		visitOps: newChain(),
	}
}

// Invalidate drops cached entries for the given resources.
func (h *Hub) Invalidate(resources ...string) {
	h.cache.Invalidate(resources...)
}

// scoped pins the filter to the current event unless the caller opted out or
// the filter already names an event.
func (h *Hub) scoped(f query.Filter, opts ReadOptions) (query.Filter, error) {
	if opts.NoEventScope || f.HasEqual("event_id") {
		return f, nil
	}
	event, err := h.session.RequireEvent()
	if err != nil {
		return query.Filter{}, err
	}
	return f.WithEqual("event_id", event.ID), nil
}

func fetch[T any](ctx context.Context, h *Hub, resource string, f query.Filter, opts ReadOptions, fn func(context.Context, query.Filter) (T, error)) (T, error) {
	key := f.Key()
	h.logger.Debug("resource read",
		zap.String("resource", resource),
		zap.String("key", key))
	return cache.Fetch(ctx, h.cache, resource, key, opts.ttl(), func(fctx context.Context) (T, error) {
		return fn(fctx, f)
	})
}

// Members returns members matching the filter. Never event-scoped.
func (h *Hub) Members(ctx context.Context, f query.Filter, opts ReadOptions) ([]db.Member, error) {
	return fetch(ctx, h, ResMembers, f, opts, h.store.GetMembers)
}

// Bacentas returns bacentas matching the filter.
func (h *Hub) Bacentas(ctx context.Context, f query.Filter, opts ReadOptions) ([]db.Bacenta, error) {
	return fetch(ctx, h, ResBacentas, f, opts, h.store.GetBacentas)
}

// Events returns events with their aggregate counters.
func (h *Hub) Events(ctx context.Context, f query.Filter, opts ReadOptions) ([]db.Event, error) {
	return fetch(ctx, h, ResEvents, f, opts, h.store.GetEvents)
}

// Contacts returns contacts, scoped to the current event by default.
func (h *Hub) Contacts(ctx context.Context, f query.Filter, opts ReadOptions) ([]db.Contact, error) {
	scoped, err := h.scoped(f, opts)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, h, ResContacts, scoped, opts, h.store.GetContacts)
}

// ContactByID returns one contact. A missing row surfaces as db.ErrNotFound,
// distinct from backend failures.
func (h *Hub) ContactByID(ctx context.Context, id string, opts ReadOptions) (*db.Contact, error) {
	return cache.Fetch(ctx, h.cache, ResContacts, "detail/"+id, opts.ttl(), func(fctx context.Context) (*db.Contact, error) {
		return h.store.GetContactByID(fctx, id)
	})
}

// Calls returns calls with caller and outcome expanded. Calls carry no
// event column; event scoping happens through the callee contact set.
func (h *Hub) Calls(ctx context.Context, f query.Filter, opts ReadOptions) ([]db.CallWithRelations, error) {
	return fetch(ctx, h, ResCalls, f, opts, h.store.GetCalls)
}

// CallsByContact returns a contact's calls, newest first.
func (h *Hub) CallsByContact(ctx context.Context, contactID string, opts ReadOptions) ([]db.CallWithRelations, error) {
	f := query.Filter{
		Equals:  map[string]any{"callee_contact_id": contactID},
		OrderBy: []query.Order{{Column: "call_timestamp", Ascending: false}},
	}
	return fetch(ctx, h, ResCalls, f, opts, h.store.GetCalls)
}

// CallOutcomes returns the outcome lookup table. It changes rarely, so it is
// cached for an hour.
func (h *Hub) CallOutcomes(ctx context.Context) ([]db.CallOutcome, error) {
	return cache.Fetch(ctx, h.cache, ResCallOutcomes, "all", time.Hour, func(fctx context.Context) ([]db.CallOutcome, error) {
		return h.store.GetCallOutcomes(fctx)
	})
}

// VisitsByContact returns a contact's visits with links expanded.
func (h *Hub) VisitsByContact(ctx context.Context, contactID string, opts ReadOptions) ([]db.VisitWithRelations, error) {
	return cache.Fetch(ctx, h.cache, ResVisits, "contact/"+contactID, opts.ttl(), func(fctx context.Context) ([]db.VisitWithRelations, error) {
		return h.store.GetVisitsByContact(fctx, contactID)
	})
}

// EventMemberTargets returns per-member counters and targets, scoped to the
// current event by default.
func (h *Hub) EventMemberTargets(ctx context.Context, f query.Filter, opts ReadOptions) ([]db.EventMemberTargetWithNames, error) {
	scoped, err := h.scoped(f, opts)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, h, ResMemberTargets, scoped, opts, h.store.GetEventMemberTargets)
}

// EventBacentaTargets returns per-bacenta counters and targets, scoped to
// the current event by default.
func (h *Hub) EventBacentaTargets(ctx context.Context, f query.Filter, opts ReadOptions) ([]db.EventBacentaTarget, error) {
	scoped, err := h.scoped(f, opts)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, h, ResBacentaTargets, scoped, opts, h.store.GetEventBacentaTargets)
}

// CumulativeConfirmations returns the running per-day confirmation series,
// scoped to the current event by default.
func (h *Hub) CumulativeConfirmations(ctx context.Context, f query.Filter, opts ReadOptions) ([]db.CumulativeConfirmation, error) {
	scoped, err := h.scoped(f, opts)
	if err != nil {
		return nil, err
	}
	if len(scoped.OrderBy) == 0 {
		scoped.OrderBy = []query.Order{{Column: "day", Ascending: true}}
	}
	return fetch(ctx, h, ResCumulative, scoped, opts, h.store.GetCumulativeConfirmations)
}

// CurrentEvent exposes the session's event selection to services.
func (h *Hub) CurrentEvent() (*db.Event, error) {
	return h.session.RequireEvent()
}

// CurrentMember exposes the session's member selection to services.
func (h *Hub) CurrentMember() (*db.Member, error) {
	return h.session.RequireMember()
}
