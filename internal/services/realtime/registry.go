package realtime

import "sync"

// Registry owns the single realtime-subscription slot for an authenticated
// session. The first loader instance to activate claims the slot and releases
// it on teardown; late instances observe it is held and skip subscribing.
// Instantiated per session and injected, never package-level, so tests can
// run independent registries.
type Registry struct {
	mu     sync.Mutex
	holder string
}

// NewRegistry creates an unclaimed registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Acquire claims the subscription slot for owner. Returns true if owner now
// holds it (re-acquiring by the current holder succeeds), false if another
// owner holds it.
func (r *Registry) Acquire(owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.holder != "" && r.holder != owner {
		return false
	}
	r.holder = owner
	return true
}

// Release gives the slot back. Only the current holder can release;
// releasing when not held is a no-op.
func (r *Registry) Release(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.holder == owner {
		r.holder = ""
	}
}

// Holder returns the current holder id, empty when unclaimed
func (r *Registry) Holder() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.holder
}
