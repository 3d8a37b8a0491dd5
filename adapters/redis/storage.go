package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"scorekit/core"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string        `json:"addr" env:"SCOREKIT_REDIS_ADDR"`
	Password     string        `json:"password" env:"SCOREKIT_REDIS_PASSWORD"`
	DB           int           `json:"db" env:"SCOREKIT_REDIS_DB"`
	PoolSize     int           `json:"pool_size" env:"SCOREKIT_REDIS_POOL_SIZE"`
	MinIdleConns int           `json:"min_idle_conns" env:"SCOREKIT_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"SCOREKIT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"SCOREKIT_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" env:"SCOREKIT_REDIS_WRITE_TIMEOUT"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store is the durable backend on Redis.
// Data structure:
// - score:{id} -> JSON blob of the immutable record
// - scores:ids -> set of every record id (scan source)
// - user:{user_id}:scores -> set of the user's record ids (secondary index)
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a Redis-backed store and verifies connectivity.
func New(config Config, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, storeErr("connect", err)
	}

	return NewWithClient(client, logger), nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func recordKey(id string) string { return "score:" + id }

func userKey(userID string) string { return "user:" + userID + ":scores" }

const allIDsKey = "scores:ids"

// storeErr marks a backend failure as retryable for the caller.
func storeErr(op string, err error) error {
	return fmt.Errorf("redis %s (%v): %w", op, err, core.ErrStoreUnavailable)
}

// Append writes the record, the id set entry, and the user index entry in
// one transaction so no partial write is observable.
func (s *Store) Append(ctx context.Context, rec core.ScoreRecord) (core.ScoreRecord, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return core.ScoreRecord{}, fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(rec.ID), data, 0)
		pipe.SAdd(ctx, allIDsKey, rec.ID)
		pipe.SAdd(ctx, userKey(rec.UserID), rec.ID)
		return nil
	})
	if err != nil {
		return core.ScoreRecord{}, storeErr("append", err)
	}
	return rec, nil
}

// ScanAll returns every record, unordered. This is a full-board read and the
// dominant cost of ranking queries at scale.
func (s *Store) ScanAll(ctx context.Context) ([]core.ScoreRecord, error) {
	ids, err := s.client.SMembers(ctx, allIDsKey).Result()
	if err != nil {
		return nil, storeErr("scan ids", err)
	}
	return s.fetch(ctx, ids)
}

// QueryByUser prefers the per-user id set; when that index read fails it
// falls back to a full scan plus filter, logging the fallback but never
// surfacing the index error to the caller.
func (s *Store) QueryByUser(ctx context.Context, userID string) ([]core.ScoreRecord, error) {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		s.logger.Warn("user index unavailable, falling back to scan",
			"user_id", userID, "error", err)
		return s.scanFilter(ctx, userID)
	}
	return s.fetch(ctx, ids)
}

func (s *Store) scanFilter(ctx context.Context, userID string) ([]core.ScoreRecord, error) {
	all, err := s.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.ScoreRecord
	for _, r := range all {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) fetch(ctx context.Context, ids []string) ([]core.ScoreRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storeErr("fetch records", err)
	}
	out := make([]core.ScoreRecord, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// id set entry without a record blob; skip
			s.logger.Warn("dangling score id", "id", ids[i])
			continue
		}
		var rec core.ScoreRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.logger.Warn("corrupt score record", "id", ids[i], "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ interface {
	Append(context.Context, core.ScoreRecord) (core.ScoreRecord, error)
	ScanAll(context.Context) ([]core.ScoreRecord, error)
	QueryByUser(context.Context, string) ([]core.ScoreRecord, error)
} = (*Store)(nil)
