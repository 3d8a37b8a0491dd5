package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"scorekit/core"
)

// Broadcaster pushes one event to many connections concurrently, so a slow
// or dead peer never delays the others. It only counts outcomes; per-send
// failures are logged and absorbed.
type Broadcaster struct {
	logger *slog.Logger
	gone   func(id string)
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithGone sets the callback invoked with the id of a connection whose peer
// reported gone. The broadcaster only detects staleness; pruning stays with
// the registry owner.
func WithGone(fn func(id string)) BroadcasterOption {
	return func(b *Broadcaster) { b.gone = fn }
}

func NewBroadcaster(logger *slog.Logger, opts ...BroadcasterOption) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broadcaster{logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Broadcast sends ev to every connection independently and waits for all
// sends to settle. An empty connection set is not an error, just {0, 0}.
func (b *Broadcaster) Broadcast(ctx context.Context, ev core.HighScoreEvent, conns []Conn) core.DeliveryResult {
	if len(conns) == 0 {
		return core.DeliveryResult{}
	}
	payload, err := json.Marshal(ev.Notification())
	if err != nil {
		b.logger.Error("broadcast marshal failed", "error", err)
		return core.DeliveryResult{Failed: len(conns)}
	}

	var (
		mu  sync.Mutex
		res core.DeliveryResult
		wg  sync.WaitGroup
	)
	for _, c := range conns {
		wg.Add(1)
		go func(c Conn) {
			defer wg.Done()
			err := c.Send(ctx, payload)
			mu.Lock()
			if err != nil {
				res.Failed++
			} else {
				res.Sent++
			}
			mu.Unlock()
			if err == nil {
				return
			}
			if errors.Is(err, ErrGone) {
				b.logger.Info("connection no longer available", "conn_id", c.ID())
				if b.gone != nil {
					b.gone(c.ID())
				}
				return
			}
			b.logger.Warn("notification send failed", "conn_id", c.ID(), "error", err)
		}(c)
	}
	wg.Wait()

	b.logger.Debug("broadcast complete", "sent", res.Sent, "failed", res.Failed)
	return res
}

// Notifier glues a Registry snapshot to the Broadcaster, giving the engine a
// single best-effort fan-out entry point.
type Notifier struct {
	registry    *Registry
	broadcaster *Broadcaster
}

func NewNotifier(registry *Registry, broadcaster *Broadcaster) *Notifier {
	return &Notifier{registry: registry, broadcaster: broadcaster}
}

// Broadcast borrows the registry's current snapshot for the duration of one
// fan-out call.
func (n *Notifier) Broadcast(ctx context.Context, ev core.HighScoreEvent) core.DeliveryResult {
	return n.broadcaster.Broadcast(ctx, ev, n.registry.Active())
}
