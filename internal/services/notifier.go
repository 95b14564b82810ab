package services

import (
	"fmt"
	"log"
	"time"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
)

// DisconnectionNotifier durably records that a participant left and
// informs the rest of the room. It never mutates the presence registry;
// the heartbeat monitor owns that and commits the record only after
// Notify's store write succeeds.
type DisconnectionNotifier struct {
	store    SessionStore
	bus      Broadcaster
	takeover *TakeoverManager
}

func NewDisconnectionNotifier(store SessionStore, bus Broadcaster, takeover *TakeoverManager) *DisconnectionNotifier {
	return &DisconnectionNotifier{
		store:    store,
		bus:      bus,
		takeover: takeover,
	}
}

// Notify persists the disconnected status, broadcasts a
// participant_disconnected event to the room, and (when the feature is
// enabled) begins AI takeover. It returns the room's latest event-log
// sequence at the moment the disconnect committed — the replay cursor for
// the eventual reconnection — and whether takeover was activated.
//
// Only the store write is fatal: on error the caller rolls the record back
// and retries on the next sweep. Broadcast and takeover failures are
// logged and tolerated, because every read path consults the store, not
// the broadcast.
func (n *DisconnectionNotifier) Notify(roomID, participantID string, at time.Time) (lastSeq int64, aiActive bool, err error) {
	lastSeq, err = n.store.LatestEventSeq(roomID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read event cursor: %w", err)
	}

	if err := n.store.SetParticipantDisconnected(participantID, at, lastSeq); err != nil {
		return 0, false, fmt.Errorf("failed to persist disconnected status: %w", err)
	}

	name, err := n.store.ParticipantName(participantID)
	if err != nil {
		log.Printf("⚠️  Display name lookup failed (participant=%s): %v", participantID, err)
		name = participantID
	}

	n.bus.BroadcastToRoom(roomID, &models.WSMessage{
		Type:   models.MsgTypeParticipantDisconnected,
		RoomID: roomID,
		Payload: map[string]interface{}{
			"participantId":  participantID,
			"name":           name,
			"disconnectedAt": at,
		},
	})

	if n.takeover.Enabled() {
		if err := n.takeover.Enable(participantID); err != nil {
			log.Printf("⚠️  AI takeover enable failed (participant=%s): %v", participantID, err)
		} else {
			aiActive = true
		}
	}

	return lastSeq, aiActive, nil
}
