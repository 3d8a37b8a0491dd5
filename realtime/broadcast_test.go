package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorekit/core"
)

type fakeConn struct {
	id      string
	sendErr error
	delay   time.Duration

	mu       sync.Mutex
	payloads [][]byte
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(_ context.Context, payload []byte) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func event(score int) core.HighScoreEvent {
	return core.NewHighScoreEvent(core.ScoreRecord{UserID: "u1", UserName: "Alice", Score: score, Timestamp: 42})
}

func TestBroadcastEmptySetIsNotAnError(t *testing.T) {
	b := NewBroadcaster(nil)
	res := b.Broadcast(context.Background(), event(1250), nil)
	assert.Equal(t, core.DeliveryResult{}, res)
}

func TestBroadcastCountsPartialFailure(t *testing.T) {
	b := NewBroadcaster(nil)
	conns := []Conn{
		&fakeConn{id: "c1"},
		&fakeConn{id: "c2", sendErr: errors.New("write: broken pipe")},
		&fakeConn{id: "c3"},
	}
	res := b.Broadcast(context.Background(), event(1250), conns)
	assert.Equal(t, core.DeliveryResult{Sent: 2, Failed: 1}, res)
}

func TestBroadcastReportsGoneConnections(t *testing.T) {
	reg := NewRegistry()
	stale := &fakeConn{id: "stale", sendErr: ErrGone}
	live := &fakeConn{id: "live"}
	reg.Add(stale)
	reg.Add(live)

	b := NewBroadcaster(nil, WithGone(reg.Remove))
	res := b.Broadcast(context.Background(), event(1250), reg.Active())

	assert.Equal(t, core.DeliveryResult{Sent: 1, Failed: 1}, res)
	assert.Equal(t, 1, reg.Len(), "gone connection pruned via callback")
	assert.Len(t, reg.Active(), 1)
	assert.Equal(t, "live", reg.Active()[0].ID())
}

func TestBroadcastDeliversWirePayloadToAll(t *testing.T) {
	b := NewBroadcaster(nil)
	c1 := &fakeConn{id: "c1"}
	c2 := &fakeConn{id: "c2"}
	res := b.Broadcast(context.Background(), event(1250), []Conn{c1, c2})
	require.Equal(t, core.DeliveryResult{Sent: 2, Failed: 0}, res)

	for _, c := range []*fakeConn{c1, c2} {
		require.Len(t, c.payloads, 1)
		var n core.Notification
		require.NoError(t, json.Unmarshal(c.payloads[0], &n))
		assert.Equal(t, core.NotificationTypeHighScore, n.Type)
		assert.Equal(t, 1250, n.Data.Score)
	}
}

func TestBroadcastFansOutConcurrently(t *testing.T) {
	b := NewBroadcaster(nil)
	const delay = 50 * time.Millisecond
	conns := make([]Conn, 8)
	for i := range conns {
		conns[i] = &fakeConn{id: string(rune('a' + i)), delay: delay}
	}
	start := time.Now()
	res := b.Broadcast(context.Background(), event(1250), conns)
	elapsed := time.Since(start)

	assert.Equal(t, 8, res.Sent)
	// Sequential delivery would take 8*delay; concurrent stays well under.
	assert.Less(t, elapsed, 4*delay, "fan-out must not serialize sends")
}

func TestNotifierUsesRegistrySnapshot(t *testing.T) {
	reg := NewRegistry()
	c1 := &fakeConn{id: "c1"}
	reg.Add(c1)

	n := NewNotifier(reg, NewBroadcaster(nil))
	res := n.Broadcast(context.Background(), event(2000))
	assert.Equal(t, core.DeliveryResult{Sent: 1}, res)
	assert.Len(t, c1.payloads, 1)
}
