// Package realtime tracks live client connections and fans high-score
// events out to them.
package realtime

import (
	"context"
	"errors"
	"sync"
)

// ErrGone signals that the peer behind a connection is closed or expired.
// A send that returns it should lead to the connection being pruned.
var ErrGone = errors.New("connection gone")

// Conn is an opaque handle to a live client connection. Implementations own
// the transport and must bound each Send themselves (write deadline or
// context); the broadcaster imposes no timeout of its own.
type Conn interface {
	ID() string
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Registry is the one mutable shared structure in the service: the set of
// currently reachable connections. Add, Remove and Active are safe to call
// concurrently; Active returns a point-in-time snapshot that later mutations
// cannot corrupt.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

func (r *Registry) Add(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = c
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Active returns a snapshot of the live connections.
func (r *Registry) Active() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
