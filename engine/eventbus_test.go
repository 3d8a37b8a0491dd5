package engine

import (
	"context"
	"testing"
	"time"

	"scorekit/core"
)

func TestEventBusSync(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	bus.Subscribe(core.EventScoreSubmitted, func(ctx context.Context, e core.Event) { count++ })
	bus.Publish(context.Background(), core.NewScoreSubmitted(core.ScoreRecord{UserID: "u"}))
	if count != 1 {
		t.Fatalf("want 1 got %d", count)
	}
}

func TestEventBusAsync(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()
	ch := make(chan struct{})
	bus.Subscribe(core.EventHighScore, func(ctx context.Context, e core.Event) { close(ch) })
	bus.Publish(context.Background(), core.NewHighScore(core.ScoreRecord{UserID: "u", Score: 1500}))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	unsub := bus.Subscribe(core.EventScoreSubmitted, func(ctx context.Context, e core.Event) { count++ })
	unsub()
	bus.Publish(context.Background(), core.NewScoreSubmitted(core.ScoreRecord{UserID: "u"}))
	if count != 0 {
		t.Fatalf("want 0 got %d", count)
	}
}
