package board

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorekit/core"
	"scorekit/engine"
)

type captureConn struct {
	id string

	mu       sync.Mutex
	payloads [][]byte
}

func (c *captureConn) ID() string { return c.id }
func (c *captureConn) Send(_ context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	return nil
}
func (c *captureConn) Close() error { return nil }

func (c *captureConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func TestDefaultBoardSubmitAndQuery(t *testing.T) {
	b := New()
	t.Cleanup(b.Service.Close)
	ctx := context.Background()

	_, err := b.Service.SubmitScore(ctx, "u1", "Alice", 400)
	require.NoError(t, err)
	_, err = b.Service.SubmitScore(ctx, "u2", "Bob", 700)
	require.NoError(t, err)

	top, err := b.Service.GetTopScores(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "u2", top[0].UserID)
}

func TestBoardNotifiesRegisteredConnections(t *testing.T) {
	b := New(WithDispatchMode(engine.DispatchSync))
	t.Cleanup(b.Service.Close)

	conn := &captureConn{id: "c1"}
	b.Registry.Add(conn)

	_, err := b.Service.SubmitScore(context.Background(), "u1", "Alice", 3000)
	require.NoError(t, err)
	assert.Equal(t, 1, conn.count())

	_, err = b.Service.SubmitScore(context.Background(), "u1", "Alice", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, conn.count())
}

func TestBoardEventHandlerSeesAllEvents(t *testing.T) {
	var mu sync.Mutex
	var types []core.EventType
	b := New(
		WithDispatchMode(engine.DispatchSync),
		WithEventHandler(func(e core.Event) {
			mu.Lock()
			types = append(types, e.Type)
			mu.Unlock()
		}),
	)
	t.Cleanup(b.Service.Close)

	_, err := b.Service.SubmitScore(context.Background(), "u1", "Alice", 2000)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []core.EventType{core.EventScoreSubmitted, core.EventHighScore}, types)
}
