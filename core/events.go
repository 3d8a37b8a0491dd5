package core

import (
	"fmt"
	"time"
)

// EventType enumerates domain events published on the internal bus.
type EventType string

const (
	EventScoreSubmitted EventType = "score_submitted"
	EventHighScore      EventType = "high_score_achieved"
)

// Event is an immutable domain event carrying the record that caused it.
type Event struct {
	Type   EventType   `json:"type"`
	Time   time.Time   `json:"time"`
	Record ScoreRecord `json:"record"`
}

func NewScoreSubmitted(rec ScoreRecord) Event {
	return Event{Type: EventScoreSubmitted, Time: time.Now().UTC(), Record: rec}
}

func NewHighScore(rec ScoreRecord) Event {
	return Event{Type: EventHighScore, Time: time.Now().UTC(), Record: rec}
}

// NotificationTypeHighScore is the wire type tag clients switch on.
const NotificationTypeHighScore = "HIGH_SCORE_ACHIEVEMENT"

// HighScoreEvent is the transient payload pushed to live viewers when a
// submission clears the high-score threshold. It is consumed once by the
// broadcaster and never persisted.
type HighScoreEvent struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Score     int    `json:"score"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// NewHighScoreEvent builds the event for a qualifying record, including the
// human-readable message shown by clients.
func NewHighScoreEvent(rec ScoreRecord) HighScoreEvent {
	return HighScoreEvent{
		UserID:    rec.UserID,
		UserName:  rec.UserName,
		Score:     rec.Score,
		Timestamp: rec.Timestamp,
		Message:   fmt.Sprintf("🎉 %s achieved a high score of %d!", rec.UserName, rec.Score),
	}
}

// Notification is the envelope delivered over the real-time channel.
type Notification struct {
	Type string         `json:"type"`
	Data HighScoreEvent `json:"data"`
}

// Notification wraps the event in its wire envelope.
func (e HighScoreEvent) Notification() Notification {
	return Notification{Type: NotificationTypeHighScore, Data: e}
}
