// Package board assembles a ready-to-use leaderboard: service, connection
// registry, and notification fan-out wired together with sensible defaults.
package board

import (
	"context"
	"log/slog"

	"scorekit/adapters/memory"
	"scorekit/core"
	"scorekit/engine"
	"scorekit/realtime"
)

// Board bundles the pieces a host application needs: the service for score
// operations and the registry to attach live connections to.
type Board struct {
	Service  *engine.LeaderboardService
	Registry *realtime.Registry
}

// Option configures the board builder.
type Option func(*config)

type config struct {
	store    engine.Store
	mode     engine.DispatchMode
	engine   engine.Config
	logger   *slog.Logger
	handlers []func(core.Event)
}

// WithStore sets the persistence adapter.
func WithStore(s engine.Store) Option { return func(c *config) { c.store = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithConfig sets thresholds and query limits.
func WithConfig(cfg engine.Config) Option { return func(c *config) { c.engine = cfg } }

// WithLogger sets the logger shared by the service and broadcaster.
func WithLogger(logger *slog.Logger) Option { return func(c *config) { c.logger = logger } }

// WithEventHandler subscribes a handler to every domain event, e.g. a
// webhook sink.
func WithEventHandler(h func(core.Event)) Option {
	return func(c *config) { c.handlers = append(c.handlers, h) }
}

// New builds a configured Board. Defaults: in-memory storage, async event
// dispatch, slog default logger.
func New(opts ...Option) *Board {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.New()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	reg := realtime.NewRegistry()
	broadcaster := realtime.NewBroadcaster(cfg.logger, realtime.WithGone(reg.Remove))
	notifier := realtime.NewNotifier(reg, broadcaster)

	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewLeaderboardService(cfg.store, bus, notifier, cfg.engine, cfg.logger)

	for _, h := range cfg.handlers {
		h := h
		fn := func(_ context.Context, e core.Event) { h(e) }
		bus.Subscribe(core.EventScoreSubmitted, fn)
		bus.Subscribe(core.EventHighScore, fn)
	}

	return &Board{Service: svc, Registry: reg}
}
