// Package memory is the volatile development backend: an append-only slice
// with a per-user index and a skip-list top-N index.
package memory

import (
	"context"
	"sync"

	"scorekit/core"
	"scorekit/ranking"
)

type Store struct {
	mu      sync.RWMutex
	records []core.ScoreRecord
	byUser  map[string][]core.ScoreRecord
	index   *ranking.SkipList
}

func New() *Store {
	return &Store{
		byUser: make(map[string][]core.ScoreRecord),
		index:  ranking.NewSkipList(),
	}
}

func (s *Store) Append(_ context.Context, rec core.ScoreRecord) (core.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], rec)
	s.index.Insert(rec)
	return rec, nil
}

func (s *Store) ScanAll(_ context.Context) ([]core.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.ScoreRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Store) QueryByUser(_ context.Context, userID string) ([]core.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.byUser[userID]
	out := make([]core.ScoreRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// TopScores serves top-N from the skip list instead of rescanning.
func (s *Store) TopScores(_ context.Context, n int) ([]core.ScoreRecord, error) {
	return s.index.TopN(n), nil
}

var _ interface {
	Append(context.Context, core.ScoreRecord) (core.ScoreRecord, error)
	ScanAll(context.Context) ([]core.ScoreRecord, error)
	QueryByUser(context.Context, string) ([]core.ScoreRecord, error)
	TopScores(context.Context, int) ([]core.ScoreRecord, error)
} = (*Store)(nil)
