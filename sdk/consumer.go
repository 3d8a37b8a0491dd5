package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"scorekit/core"
)

// ConnState describes where the consumer is in its connection lifecycle.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("ConnState(%d)", int32(s))
	}
}

// ErrReconnectExhausted is returned by Run when the consumer gives up after
// the configured number of consecutive failed connection attempts.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

const (
	defaultReconnectDelay = 3000 * time.Millisecond
	defaultMaxReconnects  = 5
)

// NotificationHandler receives each decoded notification.
type NotificationHandler func(core.Notification)

// Consumer maintains a websocket subscription to a scorekit server and
// invokes a handler for every notification. Dropped connections are retried
// with a fixed delay; after too many consecutive failures the consumer stops
// for good.
type Consumer struct {
	url     string
	handler NotificationHandler
	logger  *slog.Logger

	reconnectDelay time.Duration
	maxReconnects  int

	mu     sync.Mutex
	state  ConnState
	conn   *gorillaws.Conn
	cancel context.CancelFunc
}

// ConsumerOption customizes a Consumer.
type ConsumerOption func(*Consumer)

// WithReconnectDelay overrides the pause between connection attempts.
func WithReconnectDelay(d time.Duration) ConsumerOption {
	return func(c *Consumer) { c.reconnectDelay = d }
}

// WithMaxReconnects overrides the number of consecutive failed attempts
// tolerated before Run gives up.
func WithMaxReconnects(n int) ConsumerOption {
	return func(c *Consumer) { c.maxReconnects = n }
}

// WithConsumerLogger sets the logger used for connection events.
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) { c.logger = logger }
}

// NewConsumer creates a consumer for the given ws:// or wss:// URL.
func NewConsumer(url string, handler NotificationHandler, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		url:            url,
		handler:        handler,
		logger:         slog.Default(),
		reconnectDelay: defaultReconnectDelay,
		maxReconnects:  defaultMaxReconnects,
		state:          StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports the current connection state.
func (c *Consumer) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run connects and consumes notifications until the context is canceled,
// Disconnect is called, or too many connection attempts fail in a row. It
// blocks for the lifetime of the subscription. A successful connection
// resets the failure counter, so only consecutive failures count toward the
// limit.
func (c *Consumer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		cancel()
		return nil
	}
	c.cancel = cancel
	c.mu.Unlock()

	attempts := 0
	for {
		c.setState(StateConnecting)
		conn, _, err := gorillaws.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			attempts++
			c.setState(StateDisconnected)
			if c.closed() {
				return nil
			}
			if attempts >= c.maxReconnects {
				c.logger.Error("giving up on notification stream", "url", c.url, "attempts", attempts)
				c.close()
				return fmt.Errorf("%w after %d attempts: %v", ErrReconnectExhausted, attempts, err)
			}
			c.logger.Warn("connect failed, retrying",
				"url", c.url, "attempt", attempts, "max", c.maxReconnects, "delay", c.reconnectDelay)
			select {
			case <-ctx.Done():
				c.close()
				return nil
			case <-time.After(c.reconnectDelay):
			}
			continue
		}

		attempts = 0
		c.adopt(conn)
		c.logger.Info("notification stream connected", "url", c.url)

		c.readLoop(conn)

		c.setState(StateDisconnected)
		if c.closed() || ctx.Err() != nil {
			c.close()
			return nil
		}
		c.logger.Warn("notification stream dropped, reconnecting", "url", c.url, "delay", c.reconnectDelay)
		select {
		case <-ctx.Done():
			c.close()
			return nil
		case <-time.After(c.reconnectDelay):
		}
	}
}

// readLoop consumes messages until the connection fails. Payloads that do
// not decode as notifications are logged and skipped.
func (c *Consumer) readLoop(conn *gorillaws.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var n core.Notification
		if err := json.Unmarshal(payload, &n); err != nil {
			c.logger.Warn("dropping malformed notification", "error", err)
			continue
		}
		if c.handler != nil {
			c.handler(n)
		}
	}
}

// Disconnect stops the consumer: it cancels any pending reconnect, closes a
// live connection, and causes Run to return nil. Safe to call more than once.
func (c *Consumer) Disconnect() {
	c.mu.Lock()
	c.state = StateClosed
	conn := c.conn
	c.conn = nil
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Consumer) adopt(conn *gorillaws.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
}

func (c *Consumer) setState(s ConnState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = s
}

func (c *Consumer) closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateClosed
}

func (c *Consumer) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
