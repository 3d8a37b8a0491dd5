package realtime

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type nopConn struct{ id string }

func (c nopConn) ID() string                           { return c.id }
func (c nopConn) Send(context.Context, []byte) error   { return nil }
func (c nopConn) Close() error                         { return nil }

func TestRegistryAddRemoveActive(t *testing.T) {
	r := NewRegistry()
	r.Add(nopConn{id: "c1"})
	r.Add(nopConn{id: "c2"})
	assert.Equal(t, 2, r.Len())

	r.Remove("c1")
	active := r.Active()
	assert.Len(t, active, 1)
	assert.Equal(t, "c2", active[0].ID())

	r.Remove("missing") // no-op
	assert.Equal(t, 1, r.Len())
}

func TestRegistryAddReplacesSameID(t *testing.T) {
	r := NewRegistry()
	r.Add(nopConn{id: "c1"})
	r.Add(nopConn{id: "c1"})
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySnapshotUnderConcurrentMutation(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("%d-%d", g, i)
				r.Add(nopConn{id: id})
				snapshot := r.Active()
				for _, c := range snapshot {
					// no torn or nil entries observable mid-iteration
					assert.NotEmpty(t, c.ID())
				}
				r.Remove(id)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}
