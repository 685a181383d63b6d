package resources

import "sync"

// chain serializes operations per key in submission order. Used so two edits
// of the same visit never interleave their join-table rewrites.
type chain struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func newChain() *chain {
	return &chain{tails: make(map[string]chan struct{})}
}

// run executes fn after every previously submitted operation for key has
// completed. fn's own cancellation is handled by whatever context it closes
// over.
func (c *chain) run(key string, fn func() error) error {
	c.mu.Lock()
	prev := c.tails[key]
	done := make(chan struct{})
	c.tails[key] = done
	c.mu.Unlock()

	defer func() {
		close(done)
		c.mu.Lock()
		if c.tails[key] == done {
			delete(c.tails, key)
		}
		c.mu.Unlock()
	}()

	if prev != nil {
		<-prev
	}
	return fn()
}
