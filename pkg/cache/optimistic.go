package cache

// Optimistic is the reusable optimistic-update helper: it cancels in-flight
// reads for the affected resources, snapshots their cache state, lets the
// mutation apply synchronous patches, and then either rolls the patches back
// (failed write) or invalidates the resources so the authoritative state is
// refetched (successful write).
//
// Usage:
//
//	op := c.BeginOptimistic("events", "event_member_targets")
//	op.Patch("events", bumpCounter)
//	if err := write(ctx); err != nil {
//	    op.Rollback()
//	    return err
//	}
//	op.Settle()
type Optimistic struct {
	cache     *Cache
	resources []string
	snap      Snapshot
	done      bool
}

// BeginOptimistic starts an optimistic update covering the given resources.
func (c *Cache) BeginOptimistic(resources ...string) *Optimistic {
	c.CancelInflight(resources...)
	return &Optimistic{
		cache:     c,
		resources: resources,
		snap:      c.Snapshot(resources...),
	}
}

// Patch applies fn to every cached entry of the resource. The resource must
// be one of those named at BeginOptimistic, or Rollback will not cover it.
func (o *Optimistic) Patch(resource string, fn PatchFunc) {
	o.cache.Patch(resource, fn)
}

// Rollback restores the affected resources to their pre-patch state.
func (o *Optimistic) Rollback() {
	if o.done {
		return
	}
	o.done = true
	o.cache.Restore(o.snap)
	o.cache.rollbacks.Inc()
}

// Settle completes the optimistic update after a successful write by
// invalidating the affected resources.
func (o *Optimistic) Settle() {
	if o.done {
		return
	}
	o.done = true
	o.cache.Invalidate(o.resources...)
}
