package ws

import (
	"sync"

	"github.com/vaderpos/inventory-service/internal/metrics"
)

// Registry is the thread-safe set of open connections. It is the only
// component allowed to mutate membership; broadcasts iterate a snapshot so
// concurrent unregisters never invalidate an iteration in progress.
type Registry struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[*Conn]struct{})}
}

// Register adds a connection. Registering the same connection twice is a
// no-op.
func (r *Registry) Register(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; ok {
		return
	}
	r.conns[c] = struct{}{}
	metrics.SocketConnections.Set(float64(len(r.conns)))
}

// Unregister removes a connection. Idempotent.
func (r *Registry) Unregister(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return
	}
	delete(r.conns, c)
	metrics.SocketConnections.Set(float64(len(r.conns)))
}

// Snapshot returns a stable copy of the current membership.
func (r *Registry) Snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		out = append(out, c)
	}
	return out
}

// Len returns the current number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
