package services

import (
	"time"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
)

// SessionStore is the slice of the durable session/participant store the
// presence subsystem depends on. SessionManager implements it over
// PocketBase; tests substitute a fake.
type SessionStore interface {
	// Participant connection status
	SetParticipantConnected(participantID string, at time.Time) error
	SetParticipantDisconnected(participantID string, at time.Time, lastSeq int64) error
	ParticipantName(participantID string) (string, error)

	// AI takeover flag
	SetAIControlled(participantID string, controlled bool) error
	AIControlled(participantID string) (bool, error)

	// Session event log (append-only, consumed read-only here)
	LatestEventSeq(roomID string) (int64, error)
	EventsSince(roomID string, afterSeq int64) ([]models.SessionEvent, error)
	RoomSnapshot(roomID string) (*models.RoomSnapshot, error)
}

// Broadcaster publishes an event to every client connected to a room.
// Hub implements it; delivery is best-effort and never blocks the caller.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message *models.WSMessage)
}
