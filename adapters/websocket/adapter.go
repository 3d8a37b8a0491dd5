// Package websocket bridges gorilla/websocket connections into the realtime
// registry as sendable handles.
package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"

	"scorekit/realtime"
)

const defaultWriteTimeout = 5 * time.Second

// Handler upgrades to WebSocket, registers the connection for high-score
// notifications, and removes it again when the peer goes away. The channel
// is push-only; inbound frames are drained and discarded.
func Handler(reg *realtime.Registry, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := newConn(uuid.NewString(), sock, defaultWriteTimeout)
		reg.Add(c)
		logger.Info("viewer connected", "conn_id", c.ID())
		defer func() {
			reg.Remove(c.ID())
			_ = c.Close()
			logger.Info("viewer disconnected", "conn_id", c.ID())
		}()

		for {
			if _, _, err := sock.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// conn adapts a gorilla socket to realtime.Conn. gorilla allows one
// concurrent writer, so sends serialize on the mutex.
type conn struct {
	id           string
	writeTimeout time.Duration

	mu     sync.Mutex
	sock   *gorillaws.Conn
	closed atomic.Bool
}

func newConn(id string, sock *gorillaws.Conn, writeTimeout time.Duration) *conn {
	return &conn{id: id, sock: sock, writeTimeout: writeTimeout}
}

func (c *conn) ID() string { return c.id }

// Send writes one text frame with a bounded deadline. Any write failure on a
// websocket means the peer is effectively gone, so it is reported as
// realtime.ErrGone for pruning.
func (c *conn) Send(ctx context.Context, payload []byte) error {
	if c.closed.Load() {
		return realtime.ErrGone
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.sock.SetWriteDeadline(deadline)
	if err := c.sock.WriteMessage(gorillaws.TextMessage, payload); err != nil {
		c.closed.Store(true)
		return fmt.Errorf("%w: %v", realtime.ErrGone, err)
	}
	return nil
}

func (c *conn) Close() error {
	c.closed.Store(true)
	return c.sock.Close()
}

var _ realtime.Conn = (*conn)(nil)
