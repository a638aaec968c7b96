package broadcast

import "sync"

// Registry is the set of currently live client sessions, indexed by id,
// used only to wake them when the broadcast file grows. It never holds
// a session's connection or offset — those are owned exclusively by the
// session itself.
type Registry struct {
	mu     sync.Mutex
	wakers map[uint64]*Waker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{wakers: make(map[uint64]*Waker)}
}

// Register adds a session's waker under its id. Called once, after the
// session's handshake succeeds.
func (r *Registry) Register(id uint64, w *Waker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wakers[id] = w
}

// Deregister removes a session's waker. Called once, when the session
// returns for any reason.
func (r *Registry) Deregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.wakers, id)
}

// WakeAll signals every currently-registered waker. Held under the lock
// for the whole O(N) iteration — safe because Waker.Wake never blocks.
func (r *Registry) WakeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wakers {
		w.Wake()
	}
}

// Count returns the number of currently-registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.wakers)
}
