package services

import (
	"fmt"
	"log"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
)

// ReconnectionSynchronizer restores a returning participant to a
// consistent view of the session. It is invoked by the presence registry
// exactly when an accepted ping targets a disconnected record.
type ReconnectionSynchronizer struct {
	store    SessionStore
	bus      Broadcaster
	takeover *TakeoverManager
	clock    Clock
}

func NewReconnectionSynchronizer(store SessionStore, bus Broadcaster, takeover *TakeoverManager, clock Clock) *ReconnectionSynchronizer {
	return &ReconnectionSynchronizer{
		store:    store,
		bus:      bus,
		takeover: takeover,
		clock:    clock,
	}
}

// Synchronize computes the missed-event summary for a participant whose
// disconnect committed at afterSeq, persists the connected status, ends AI
// takeover if it was active, and broadcasts participant_reconnected to the
// room. The summary is returned to the caller only — the transport layer
// delivers it to the reconnecting client, not to the room.
//
// The snapshot and the event query both run before the status write, so
// the summary reflects a state no older than the ping that triggered it.
// The cursor is the monotonic per-room event sequence, never wall-clock
// time, which makes the summary gap-free and duplicate-free by
// construction.
func (s *ReconnectionSynchronizer) Synchronize(roomID, participantID string, afterSeq int64, aiActive bool) (*models.SyncPayload, error) {
	snapshot, err := s.store.RoomSnapshot(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to read room snapshot: %w", err)
	}

	missed, err := s.store.EventsSince(roomID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to read missed events: %w", err)
	}

	if err := s.store.SetParticipantConnected(participantID, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to persist connected status: %w", err)
	}

	if aiActive {
		if err := s.takeover.Disable(participantID); err != nil {
			// Non-fatal: the participant is connected either way. The flag
			// is cleared again on the next reconnection attempt or by the
			// gameplay loop noticing the connected status.
			log.Printf("⚠️  AI takeover disable failed (participant=%s): %v", participantID, err)
		}
	}

	name, err := s.store.ParticipantName(participantID)
	if err != nil {
		log.Printf("⚠️  Display name lookup failed (participant=%s): %v", participantID, err)
		name = participantID
	}

	s.bus.BroadcastToRoom(roomID, &models.WSMessage{
		Type:   models.MsgTypeParticipantReconnected,
		RoomID: roomID,
		Payload: map[string]interface{}{
			"participantId": participantID,
			"name":          name,
		},
	})

	return &models.SyncPayload{
		MissedEvents:    missed,
		CurrentQuestion: snapshot.CurrentQuestion,
		Winners:         snapshot.Winners,
	}, nil
}
