// Package sqlx is the SQL-backed durable store, supporting Postgres and
// MySQL through database/sql drivers.
package sqlx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"scorekit/core"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds SQL connection configuration.
type Config struct {
	Driver          string        `json:"driver" env:"SCOREKIT_SQL_DRIVER"`
	DSN             string        `json:"dsn" env:"SCOREKIT_SQL_DSN"`
	MaxOpenConns    int           `json:"max_open_conns" env:"SCOREKIT_SQL_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `json:"max_idle_conns" env:"SCOREKIT_SQL_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" env:"SCOREKIT_SQL_CONN_MAX_LIFETIME"`
}

// DefaultConfig returns defaults for the given driver.
func DefaultConfig(driver string) Config {
	return Config{
		Driver:          driver,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store persists score records in a single `scores` table with a user_id
// index, so per-user queries and top-N never need a full table scan.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// scoreRow mirrors the table layout.
type scoreRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	UserName  string `db:"user_name"`
	Score     int    `db:"score"`
	Timestamp int64  `db:"ts"`
}

func (r scoreRow) record() core.ScoreRecord {
	return core.ScoreRecord{ID: r.ID, UserID: r.UserID, UserName: r.UserName, Score: r.Score, Timestamp: r.Timestamp}
}

// New connects and verifies connectivity.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, storeErr("connect", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an existing handle (useful for testing with sqlmock).
func NewWithDB(db *sqlx.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the scores table and its user index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scores (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(128) NOT NULL,
			user_name VARCHAR(256) NOT NULL,
			score BIGINT NOT NULL,
			ts BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_user_id ON scores (user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return storeErr("ensure schema", err)
		}
	}
	return nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("sql %s (%v): %w", op, err, core.ErrStoreUnavailable)
}

func (s *Store) Append(ctx context.Context, rec core.ScoreRecord) (core.ScoreRecord, error) {
	query := s.db.Rebind(`INSERT INTO scores (id, user_id, user_name, score, ts) VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, rec.ID, rec.UserID, rec.UserName, rec.Score, rec.Timestamp); err != nil {
		return core.ScoreRecord{}, storeErr("append", err)
	}
	return rec, nil
}

func (s *Store) ScanAll(ctx context.Context) ([]core.ScoreRecord, error) {
	var rows []scoreRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, user_id, user_name, score, ts FROM scores`); err != nil {
		return nil, storeErr("scan", err)
	}
	return toRecords(rows), nil
}

// QueryByUser hits the user_id index; if the indexed query fails it falls
// back to scan + filter, logging the fallback without erroring for it.
func (s *Store) QueryByUser(ctx context.Context, userID string) ([]core.ScoreRecord, error) {
	var rows []scoreRow
	query := s.db.Rebind(`SELECT id, user_id, user_name, score, ts FROM scores WHERE user_id = ?`)
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		s.logger.Warn("indexed user query failed, falling back to scan",
			"user_id", userID, "error", err)
		all, scanErr := s.ScanAll(ctx)
		if scanErr != nil {
			return nil, scanErr
		}
		var out []core.ScoreRecord
		for _, r := range all {
			if r.UserID == userID {
				out = append(out, r)
			}
		}
		return out, nil
	}
	return toRecords(rows), nil
}

// TopScores lets the database do the ordering, matching ranking.TopN's
// (score desc, ts asc, id asc) order.
func (s *Store) TopScores(ctx context.Context, n int) ([]core.ScoreRecord, error) {
	var rows []scoreRow
	query := s.db.Rebind(`SELECT id, user_id, user_name, score, ts FROM scores ORDER BY score DESC, ts ASC, id ASC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &rows, query, n); err != nil {
		return nil, storeErr("top scores", err)
	}
	return toRecords(rows), nil
}

func toRecords(rows []scoreRow) []core.ScoreRecord {
	if len(rows) == 0 {
		return nil
	}
	out := make([]core.ScoreRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out
}

var _ interface {
	Append(context.Context, core.ScoreRecord) (core.ScoreRecord, error)
	ScanAll(context.Context) ([]core.ScoreRecord, error)
	QueryByUser(context.Context, string) ([]core.ScoreRecord, error)
	TopScores(context.Context, int) ([]core.ScoreRecord, error)
} = (*Store)(nil)
