package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/pocketbase/pocketbase/core"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/security"
	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/services"
)

type WSHandler struct {
	hub      *services.Hub
	presence *services.PresenceService
	sessions *services.SessionManager
	origins  *security.OriginValidator
}

func NewWSHandler(hub *services.Hub, presence *services.PresenceService, sessions *services.SessionManager, origins *security.OriginValidator) *WSHandler {
	return &WSHandler{
		hub:      hub,
		presence: presence,
		sessions: sessions,
		origins:  origins,
	}
}

func (h *WSHandler) HandleWebSocket(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")

	// Verify room exists
	if _, err := h.sessions.GetRoom(roomID); err != nil {
		return re.JSON(http.StatusNotFound, map[string]string{"error": "Room not found"})
	}

	// Resolve the participant from the session cookie; the socket is
	// useless without one since every message is participant-scoped
	sessionCookie := getSessionCookie(re.Request)
	if sessionCookie == "" {
		return re.JSON(http.StatusUnauthorized, map[string]string{"error": "Join the room before connecting"})
	}
	participantRecord, err := h.sessions.GetParticipantBySession(roomID, sessionCookie)
	if err != nil {
		return re.JSON(http.StatusUnauthorized, map[string]string{"error": "Join the room before connecting"})
	}
	participantID := participantRecord.Id

	conn, err := websocket.Accept(re.Response, re.Request, h.origins.GetAcceptOptions())
	if err != nil {
		return err
	}

	client := services.NewClient(conn, h.hub, roomID, participantID, h.handleMessage)
	h.hub.Register(client)

	// Start monitoring liveness. The socket opening counts as a ping: for
	// a disconnected participant this is the reconnection trigger.
	payload, err := h.presence.ReceivePing(roomID, participantID)
	if err != nil {
		// Transient store failure during a reconnection sync; the next
		// ping retries
		log.Printf("⚠️  Ping handling failed (room=%s, participant=%s): %v", roomID, participantID, err)
	} else if payload != nil {
		h.hub.SendToClient(client, &models.WSMessage{
			Type:    models.MsgTypeSyncState,
			RoomID:  roomID,
			Payload: payload,
		})
	}

	client.Start()
	client.Wait()
	return nil
}

func (h *WSHandler) handleMessage(c *services.Client, data []byte) {
	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	if !security.IsValidMessageType(msg.Type) {
		log.Printf("Invalid message type %q (room=%s, participant=%s)", msg.Type, c.RoomID(), c.ParticipantID())
		return
	}
	if err := security.ValidateMessagePayload(msg.Type, msg.Payload); err != nil {
		h.sendError(c, err.Error())
		return
	}

	switch msg.Type {
	case models.MsgTypePing:
		h.handlePing(c)
	case models.MsgTypeLeave:
		h.handleLeave(c)
	case models.MsgTypeAnswer:
		h.handleAnswer(c, msg.Payload)
	case models.MsgTypeAdvanceQuestion:
		h.handleAdvanceQuestion(c)
	case models.MsgTypeAnnounceWinners:
		h.handleAnnounceWinners(c, msg.Payload)
	}
}

func (h *WSHandler) handlePing(c *services.Client) {
	payload, err := h.presence.ReceivePing(c.RoomID(), c.ParticipantID())
	if err != nil {
		// Transient store failure during a reconnection sync; the next
		// ping retries. Never surfaced to the participant as a failure.
		log.Printf("⚠️  Ping handling failed (room=%s, participant=%s): %v", c.RoomID(), c.ParticipantID(), err)
		return
	}
	if payload != nil {
		h.hub.SendToClient(c, &models.WSMessage{
			Type:    models.MsgTypeSyncState,
			RoomID:  c.RoomID(),
			Payload: payload,
		})
	}
}

func (h *WSHandler) handleLeave(c *services.Client) {
	// Clean departure: stop monitoring without emitting a disconnection
	// event, even if the grace deadline had already elapsed
	h.presence.UnregisterParticipant(c.ParticipantID())

	if err := h.sessions.MarkParticipantLeft(c.ParticipantID()); err != nil {
		log.Printf("Failed to persist departure (participant=%s): %v", c.ParticipantID(), err)
	}

	name, err := h.sessions.ParticipantName(c.ParticipantID())
	if err != nil {
		name = c.ParticipantID()
	}
	h.hub.BroadcastToRoom(c.RoomID(), &models.WSMessage{
		Type:   models.MsgTypeParticipantLeft,
		RoomID: c.RoomID(),
		Payload: map[string]interface{}{
			"participantId": c.ParticipantID(),
			"name":          name,
		},
	})

	c.Close()
}

func (h *WSHandler) handleAnswer(c *services.Client, payload interface{}) {
	payloadMap := payload.(map[string]interface{})

	event, err := h.sessions.AppendEvent(c.RoomID(), models.EventAnswerSubmitted, map[string]interface{}{
		"participantId": c.ParticipantID(),
		"value":         payloadMap["value"],
	})
	if err != nil {
		log.Printf("Failed to append answer event (room=%s, participant=%s): %v", c.RoomID(), c.ParticipantID(), err)
		h.sendError(c, "Failed to record answer")
		return
	}

	h.hub.BroadcastToRoom(c.RoomID(), &models.WSMessage{
		Type:    models.MsgTypeAnswerSubmitted,
		RoomID:  c.RoomID(),
		Payload: event,
	})
}

func (h *WSHandler) handleAdvanceQuestion(c *services.Client) {
	if !h.sessions.IsRoomHost(c.RoomID(), c.ParticipantID()) {
		h.sendError(c, "Only the host can advance the question")
		return
	}

	question, event, err := h.sessions.AdvanceQuestion(c.RoomID())
	if err != nil {
		log.Printf("Failed to advance question (room=%s): %v", c.RoomID(), err)
		h.sendError(c, "Failed to advance question")
		return
	}

	h.hub.BroadcastToRoom(c.RoomID(), &models.WSMessage{
		Type:   models.MsgTypeQuestionAdvanced,
		RoomID: c.RoomID(),
		Payload: map[string]interface{}{
			"question": question,
			"seq":      event.Seq,
		},
	})
}

func (h *WSHandler) handleAnnounceWinners(c *services.Client, payload interface{}) {
	if !h.sessions.IsRoomHost(c.RoomID(), c.ParticipantID()) {
		h.sendError(c, "Only the host can announce winners")
		return
	}

	payloadMap := payload.(map[string]interface{})
	rawWinners, _ := payloadMap["winners"].([]interface{})
	winners := make([]string, 0, len(rawWinners))
	for _, w := range rawWinners {
		if s, ok := w.(string); ok {
			winners = append(winners, s)
		}
	}

	event, err := h.sessions.SetWinners(c.RoomID(), winners)
	if err != nil {
		log.Printf("Failed to set winners (room=%s): %v", c.RoomID(), err)
		h.sendError(c, "Failed to announce winners")
		return
	}

	h.hub.BroadcastToRoom(c.RoomID(), &models.WSMessage{
		Type:   models.MsgTypeWinnersAnnounced,
		RoomID: c.RoomID(),
		Payload: map[string]interface{}{
			"winners": winners,
			"seq":     event.Seq,
		},
	})
}

func (h *WSHandler) sendError(c *services.Client, message string) {
	h.hub.SendToClient(c, &models.WSMessage{
		Type:    "error",
		Payload: map[string]string{"message": message},
	})
}
