package engine

import (
	"context"

	"scorekit/core"
)

// Store abstracts the durable, unordered score collection. Append never
// partially writes; ScanAll has no ordering guarantee and may be expensive;
// QueryByUser prefers an indexed lookup and silently falls back to a scan
// plus filter when the index path fails.
type Store interface {
	Append(ctx context.Context, rec core.ScoreRecord) (core.ScoreRecord, error)
	ScanAll(ctx context.Context) ([]core.ScoreRecord, error)
	QueryByUser(ctx context.Context, userID string) ([]core.ScoreRecord, error)
}

// TopProvider is an optional Store capability: a store-maintained top-N path
// that avoids the full scan. Its output must agree with ranking.TopN.
type TopProvider interface {
	TopScores(ctx context.Context, n int) ([]core.ScoreRecord, error)
}

// Broadcaster pushes a high-score event to every currently connected viewer,
// best-effort. It reports counts and never fails the caller.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev core.HighScoreEvent) core.DeliveryResult
}
