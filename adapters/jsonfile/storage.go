package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"scorekit/core"
)

// Store persists the whole record list to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path    string
	mu      sync.Mutex
	records []core.ScoreRecord
}

func New(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s (%v): %w", path, err, core.ErrStoreUnavailable)
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, &s.records)
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	b, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Append writes through to disk; the tmp-file rename keeps the file whole
// even if the process dies mid-write.
func (s *Store) Append(_ context.Context, rec core.ScoreRecord) (core.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if err := s.persist(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return core.ScoreRecord{}, fmt.Errorf("persist %s (%v): %w", s.path, err, core.ErrStoreUnavailable)
	}
	return rec, nil
}

func (s *Store) ScanAll(_ context.Context) ([]core.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ScoreRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Store) QueryByUser(_ context.Context, userID string) ([]core.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ScoreRecord
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

var _ interface {
	Append(context.Context, core.ScoreRecord) (core.ScoreRecord, error)
	ScanAll(context.Context) ([]core.ScoreRecord, error)
	QueryByUser(context.Context, string) ([]core.ScoreRecord, error)
} = (*Store)(nil)
