package ranking

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"scorekit/core"
)

// A skip list keyed by (score desc, timestamp asc, id asc) serving as a
// materialized top-K index over an append-only record set, so reads do not
// resort the whole board. Its output must match TopN; the tests hold it to
// that.

const maxLevel = 16
const pFactor = 0.25

type node struct {
	rec  core.ScoreRecord
	next [maxLevel]*node
}

type SkipList struct {
	mu   sync.RWMutex
	head *node
	lvl  int
	byID map[string]*node
	size int
	rng  *rand.Rand
}

func NewSkipList() *SkipList {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	return &SkipList{
		head: &node{},
		lvl:  1,
		byID: map[string]*node{},
		rng: rand.New(rand.NewPCG(
			binary.BigEndian.Uint64(seed[:8]),
			binary.BigEndian.Uint64(seed[8:]),
		)),
	}
}

func (s *SkipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

// Insert adds a record. Records are immutable, so inserting an id twice is a
// no-op.
func (s *SkipList) Insert(rec core.ScoreRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[rec.ID]; ok {
		return
	}
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && ranksBefore(cur.next[i].rec, rec) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node{rec: rec}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.byID[rec.ID] = n
	s.size++
}

// Remove deletes a record by id. The leaderboard itself never removes
// records; this exists so a rebuild can drop stale entries.
func (s *SkipList) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.byID[id]
	if !ok {
		return
	}
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && ranksBefore(cur.next[i].rec, target.rec) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	found := update[0].next[0]
	if found == nil || found.rec.ID != id {
		return
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == found {
			update[i].next[i] = found.next[i]
		}
	}
	delete(s.byID, id)
	s.size--
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
}

// TopN walks the bottom lane, which is already in rank order.
func (s *SkipList) TopN(n int) []core.ScoreRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	out := make([]core.ScoreRecord, 0, n)
	cur := s.head.next[0]
	for cur != nil && len(out) < n {
		out = append(out, cur.rec)
		cur = cur.next[0]
	}
	return out
}

func (s *SkipList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}
