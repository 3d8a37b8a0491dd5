package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScoreRecord is one immutable leaderboard entry. Records are append-only:
// there is no update or delete path, a user accumulates a history of them.
type ScoreRecord struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Score    int    `json:"score"`
	// Timestamp is epoch milliseconds, set server-side at append time.
	Timestamp int64 `json:"timestamp"`
}

// NewScoreRecord mints a record with a fresh id and the current wall clock.
// The identity fields come from the authentication layer, never from client
// input.
func NewScoreRecord(userID, userName string, score int) ScoreRecord {
	return ScoreRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserName:  userName,
		Score:     score,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Ranking describes a user's position on the board, computed over every
// user's best score. Rank and BestScore are nil when the user has never
// submitted.
type Ranking struct {
	Rank         *int `json:"rank"`
	TotalPlayers int  `json:"totalPlayers"`
	BestScore    *int `json:"bestScore"`
}

// Stats summarizes the whole board. All fields are zero when the board is
// empty.
type Stats struct {
	TotalEntries int `json:"totalEntries"`
	HighestScore int `json:"highestScore"`
	AverageScore int `json:"averageScore"`
	TotalPlayers int `json:"totalPlayers"`
}

// DeliveryResult reports a best-effort fan-out: how many connections the
// event reached and how many sends failed. Partial failure is informational,
// never an error.
type DeliveryResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// ValidateScore rejects scores outside [0, max] with ErrInvalidScore.
func ValidateScore(score, max int) error {
	if score < 0 || score > max {
		return fmt.Errorf("score %d outside [0, %d]: %w", score, max, ErrInvalidScore)
	}
	return nil
}

// ValidateUserID ensures a non-blank identity was supplied.
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("empty user id")
	}
	return nil
}
