package engine

import (
	"context"
	"fmt"
	"log/slog"

	"scorekit/core"
	"scorekit/ranking"
)

// Config bounds submissions and queries. Zero values fall back to the
// built-in defaults.
type Config struct {
	// HighScoreThreshold: a submission strictly above it triggers the
	// real-time broadcast.
	HighScoreThreshold int
	// MaxScore is the inclusive upper bound for a valid submission.
	MaxScore int
	// DefaultLimit applies when a top-scores query gives no limit.
	DefaultLimit int
	// MaxLimit clamps a top-scores query.
	MaxLimit int
}

const (
	defaultHighScoreThreshold = 1000
	defaultMaxScore           = 999999
	defaultLimit              = 10
	defaultMaxLimit           = 100
)

func (c Config) withDefaults() Config {
	if c.HighScoreThreshold <= 0 {
		c.HighScoreThreshold = defaultHighScoreThreshold
	}
	if c.MaxScore <= 0 {
		c.MaxScore = defaultMaxScore
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = defaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = defaultMaxLimit
	}
	return c
}

// LeaderboardService orchestrates the store, the pure ranking functions, and
// the broadcaster. Ranking reads are not transactionally isolated from
// concurrent appends; a query racing a submission may or may not see it,
// which is accepted.
type LeaderboardService struct {
	store       Store
	bus         *EventBus
	broadcaster Broadcaster
	cfg         Config
	logger      *slog.Logger
}

func NewLeaderboardService(store Store, bus *EventBus, broadcaster Broadcaster, cfg Config, logger *slog.Logger) *LeaderboardService {
	if store == nil || bus == nil {
		panic("NewLeaderboardService requires non-nil store and bus")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardService{
		store:       store,
		bus:         bus,
		broadcaster: broadcaster,
		cfg:         cfg.withDefaults(),
		logger:      logger,
	}
}

// Subscribe convenience method for bus observers.
func (s *LeaderboardService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

// SubmitScore validates and appends one record, then broadcasts a high-score
// notification when the score clears the threshold. The broadcast is
// best-effort: its outcome never affects the submission result, which
// depends only on validation and the store write.
func (s *LeaderboardService) SubmitScore(ctx context.Context, userID, userName string, score int) (core.ScoreRecord, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return core.ScoreRecord{}, err
	}
	if err := core.ValidateScore(score, s.cfg.MaxScore); err != nil {
		return core.ScoreRecord{}, err
	}

	rec, err := s.store.Append(ctx, core.NewScoreRecord(userID, userName, score))
	if err != nil {
		return core.ScoreRecord{}, fmt.Errorf("submit score: %w", err)
	}
	s.bus.Publish(ctx, core.NewScoreSubmitted(rec))

	if rec.Score > s.cfg.HighScoreThreshold {
		s.bus.Publish(ctx, core.NewHighScore(rec))
		if s.broadcaster != nil {
			res := s.broadcaster.Broadcast(ctx, core.NewHighScoreEvent(rec))
			s.logger.Info("high score broadcast",
				"user_id", rec.UserID,
				"score", rec.Score,
				"sent", res.Sent,
				"failed", res.Failed)
		}
	}
	return rec, nil
}

// GetTopScores returns the best records, score descending. A non-positive
// limit falls back to the default; limits above the maximum are clamped.
// When the store maintains its own top-N index it is preferred over a full
// scan.
func (s *LeaderboardService) GetTopScores(ctx context.Context, limit int) ([]core.ScoreRecord, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	if tp, ok := s.store.(TopProvider); ok {
		top, err := tp.TopScores(ctx, limit)
		if err == nil {
			return top, nil
		}
		s.logger.Warn("top-N index unavailable, falling back to scan", "error", err)
	}

	all, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	return ranking.TopN(all, limit), nil
}

// GetTopScore returns the single best record.
func (s *LeaderboardService) GetTopScore(ctx context.Context) ([]core.ScoreRecord, error) {
	return s.GetTopScores(ctx, 1)
}

// GetUserScores returns the caller's history, most recent first.
func (s *LeaderboardService) GetUserScores(ctx context.Context, userID string) ([]core.ScoreRecord, error) {
	records, err := s.store.QueryByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user scores: %w", err)
	}
	return ranking.UserHistory(records), nil
}

// GetUserBestScore returns the caller's best record, or ErrNotFound when the
// user has never submitted.
func (s *LeaderboardService) GetUserBestScore(ctx context.Context, userID string) (core.ScoreRecord, error) {
	records, err := s.store.QueryByUser(ctx, userID)
	if err != nil {
		return core.ScoreRecord{}, fmt.Errorf("user best score: %w", err)
	}
	best, ok := ranking.UserBest(records)
	if !ok {
		return core.ScoreRecord{}, fmt.Errorf("user %s has no scores: %w", userID, core.ErrNotFound)
	}
	return best, nil
}

// GetUserRanking ranks the caller among every user's best score.
func (s *LeaderboardService) GetUserRanking(ctx context.Context, userID string) (core.Ranking, error) {
	all, err := s.store.ScanAll(ctx)
	if err != nil {
		return core.Ranking{}, fmt.Errorf("user ranking: %w", err)
	}
	return ranking.UserRank(all, userID), nil
}

// GetStats aggregates the whole board.
func (s *LeaderboardService) GetStats(ctx context.Context) (core.Stats, error) {
	all, err := s.store.ScanAll(ctx)
	if err != nil {
		return core.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return ranking.Stats(all), nil
}

// Close stops the event bus workers.
func (s *LeaderboardService) Close() { s.bus.Close() }
