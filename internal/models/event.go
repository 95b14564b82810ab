package models

import (
	"encoding/json"
	"time"
)

// Session event types appended to a room's event log.
const (
	EventQuestionAdvanced = "question_advanced"
	EventAnswerSubmitted  = "answer_submitted"
	EventWinnersAnnounced = "winners_announced"
)

// SessionEvent is one entry in a room's append-only event log. Seq is a
// monotonically increasing per-room sequence number assigned at append
// time; it is the replay cursor for reconnecting clients. EmittedAt is
// carried for display only and is never used for cursor comparisons.
type SessionEvent struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"roomId"`
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	EmittedAt time.Time       `json:"emittedAt"`
}

// SyncPayload is returned to a reconnecting client: every event it missed
// while disconnected (seq order, no gaps, no duplicates) plus the room's
// current position and any terminal outcomes.
type SyncPayload struct {
	MissedEvents    []SessionEvent `json:"missedEvents"`
	CurrentQuestion int            `json:"currentQuestion"`
	Winners         []string       `json:"winners"`
}
