// Package ranking holds the pure ranking functions the service is specified
// against. They operate on in-memory slices already fetched from a store,
// never mutate their input, and have no side effects, which makes them the
// reference any store-optimized path (skip list index, SQL ORDER BY) can be
// validated against.
package ranking

import (
	"math"
	"sort"

	"scorekit/core"
)

// ranksBefore reports whether a outranks b: higher score first, ties broken
// by the earlier timestamp, then by id so the order is total and repeated
// calls are idempotent.
func ranksBefore(a, b core.ScoreRecord) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.ID < b.ID
}

func sortedCopy(records []core.ScoreRecord, less func(a, b core.ScoreRecord) bool) []core.ScoreRecord {
	out := make([]core.ScoreRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// TopN returns the n best records, score descending, earlier submission
// winning ties.
func TopN(records []core.ScoreRecord, n int) []core.ScoreRecord {
	if n <= 0 || len(records) == 0 {
		return nil
	}
	out := sortedCopy(records, ranksBefore)
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// UserHistory orders a user's records most recent first.
func UserHistory(records []core.ScoreRecord) []core.ScoreRecord {
	return sortedCopy(records, func(a, b core.ScoreRecord) bool {
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		return a.ID < b.ID
	})
}

// UserBest picks the record with the maximum score; on ties the earlier
// timestamp wins, consistent with TopN. ok is false for an empty input.
func UserBest(records []core.ScoreRecord) (best core.ScoreRecord, ok bool) {
	if len(records) == 0 {
		return core.ScoreRecord{}, false
	}
	best = records[0]
	for _, r := range records[1:] {
		if ranksBefore(r, best) {
			best = r
		}
	}
	return best, true
}

// UserRank ranks userID among every distinct user's best score. Rank is the
// 1-based position in that ordering; users tied on best score get adjacent
// distinct ranks (no tie-sharing), ordered by the earlier best-score
// timestamp. A user with no records gets {nil, 0, nil}.
func UserRank(all []core.ScoreRecord, userID string) core.Ranking {
	bests := bestPerUser(all)
	me, ok := bests[userID]
	if !ok {
		return core.Ranking{}
	}

	entries := make([]core.ScoreRecord, 0, len(bests))
	for _, r := range bests {
		entries = append(entries, r)
	}
	sort.Slice(entries, func(i, j int) bool { return ranksBefore(entries[i], entries[j]) })

	rank := 0
	for i, e := range entries {
		if e.UserID == userID {
			rank = i + 1
			break
		}
	}
	score := me.Score
	return core.Ranking{Rank: &rank, TotalPlayers: len(bests), BestScore: &score}
}

// Stats aggregates the whole board. AverageScore is the arithmetic mean over
// all entries (not per user), rounded to the nearest integer; everything is
// zero for an empty board.
func Stats(records []core.ScoreRecord) core.Stats {
	if len(records) == 0 {
		return core.Stats{}
	}
	users := make(map[string]struct{}, len(records))
	sum := 0
	highest := records[0].Score
	for _, r := range records {
		users[r.UserID] = struct{}{}
		sum += r.Score
		if r.Score > highest {
			highest = r.Score
		}
	}
	return core.Stats{
		TotalEntries: len(records),
		HighestScore: highest,
		AverageScore: int(math.Round(float64(sum) / float64(len(records)))),
		TotalPlayers: len(users),
	}
}

func bestPerUser(records []core.ScoreRecord) map[string]core.ScoreRecord {
	bests := make(map[string]core.ScoreRecord)
	for _, r := range records {
		cur, ok := bests[r.UserID]
		if !ok || ranksBefore(r, cur) {
			bests[r.UserID] = r
		}
	}
	return bests
}
