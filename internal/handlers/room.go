package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/security"
	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/services"
)

const sessionCookieName = "quiz_session"

type RoomHandlers struct {
	sessions *services.SessionManager
	presence *services.PresenceService
	takeover *services.TakeoverManager
	hub      *services.Hub
}

func NewRoomHandlers(sessions *services.SessionManager, presence *services.PresenceService, takeover *services.TakeoverManager, hub *services.Hub) *RoomHandlers {
	return &RoomHandlers{
		sessions: sessions,
		presence: presence,
		takeover: takeover,
		hub:      hub,
	}
}

func (h *RoomHandlers) CreateRoom(re *core.RequestEvent) error {
	name := re.Request.FormValue("name")

	room, err := h.sessions.CreateRoom(name)
	if err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{
			"error": security.SanitizeErrorMessage(err),
		})
	}

	return re.JSON(http.StatusCreated, map[string]string{
		"roomId": room.Id,
		"name":   room.GetString("name"),
	})
}

// JoinRoom adds a participant to a room, issues their session cookie, and
// registers them with the presence service. The first joiner becomes host.
func (h *RoomHandlers) JoinRoom(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")
	name := re.Request.FormValue("name")

	room, err := h.sessions.GetRoom(roomID)
	if err != nil {
		return re.JSON(http.StatusNotFound, map[string]string{"error": "Room not found"})
	}

	role := models.RolePlayer
	if room.GetString("host_participant_id") == "" {
		role = models.RoleHost
	}

	sessionCookie := uuid.New().String()
	participant, err := h.sessions.AddParticipant(roomID, name, role, sessionCookie)
	if err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{
			"error": security.SanitizeErrorMessage(err),
		})
	}

	http.SetCookie(re.Response, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionCookie,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.presence.RegisterParticipant(roomID, participant.Id)

	h.hub.BroadcastToRoom(roomID, &models.WSMessage{
		Type:    models.MsgTypeParticipantJoined,
		RoomID:  roomID,
		Payload: services.ParticipantFromRecord(participant),
	})

	return re.JSON(http.StatusCreated, services.ParticipantFromRecord(participant))
}

// LeaveRoom is the HTTP variant of a clean departure (the WS `leave`
// message covers clients with an open socket)
func (h *RoomHandlers) LeaveRoom(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")

	sessionCookie := getSessionCookie(re.Request)
	participant, err := h.sessions.GetParticipantBySession(roomID, sessionCookie)
	if err != nil {
		return re.JSON(http.StatusNotFound, map[string]string{"error": "Participant not found"})
	}

	h.presence.UnregisterParticipant(participant.Id)
	if err := h.sessions.MarkParticipantLeft(participant.Id); err != nil {
		return re.JSON(http.StatusInternalServerError, map[string]string{
			"error": security.SanitizeErrorMessage(err),
		})
	}

	h.hub.BroadcastToRoom(roomID, &models.WSMessage{
		Type:   models.MsgTypeParticipantLeft,
		RoomID: roomID,
		Payload: map[string]interface{}{
			"participantId": participant.Id,
			"name":          participant.GetString("name"),
		},
	})

	return re.JSON(http.StatusOK, map[string]bool{"left": true})
}

// RoomStatus returns the room, its participants, and each participant's
// live connection snapshot from the presence registry
func (h *RoomHandlers) RoomStatus(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")

	room, err := h.sessions.GetRoom(roomID)
	if err != nil {
		return re.JSON(http.StatusNotFound, map[string]string{"error": "Room not found"})
	}

	records, err := h.sessions.GetRoomParticipants(roomID)
	if err != nil {
		return re.JSON(http.StatusInternalServerError, map[string]string{
			"error": security.SanitizeErrorMessage(err),
		})
	}

	participants := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		participants = append(participants, map[string]interface{}{
			"participant": services.ParticipantFromRecord(record),
			"connection":  h.presence.GetConnectionStatus(record.Id),
		})
	}

	return re.JSON(http.StatusOK, map[string]interface{}{
		"roomId":          room.Id,
		"name":            room.GetString("name"),
		"status":          room.GetString("status"),
		"currentQuestion": room.GetInt("current_question"),
		"participants":    participants,
	})
}

// ConnectionStatus returns the presence snapshot for one participant.
// An untracked participant is a normal response, not an error.
func (h *RoomHandlers) ConnectionStatus(re *core.RequestEvent) error {
	participantID := re.Request.PathValue("participantId")
	if err := security.ValidateID(participantID); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return re.JSON(http.StatusOK, h.presence.GetConnectionStatus(participantID))
}

// EnableAITakeover flags a participant as computer-controlled
func (h *RoomHandlers) EnableAITakeover(re *core.RequestEvent) error {
	return h.setAITakeover(re, true)
}

// DisableAITakeover clears the computer-controlled flag
func (h *RoomHandlers) DisableAITakeover(re *core.RequestEvent) error {
	return h.setAITakeover(re, false)
}

func (h *RoomHandlers) setAITakeover(re *core.RequestEvent, enable bool) error {
	participantID := re.Request.PathValue("participantId")
	if err := security.ValidateID(participantID); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var err error
	if enable {
		err = h.takeover.Enable(participantID)
	} else {
		err = h.takeover.Disable(participantID)
	}
	if err != nil {
		return re.JSON(http.StatusInternalServerError, map[string]string{
			"error": security.SanitizeErrorMessage(err),
		})
	}

	return re.JSON(http.StatusOK, map[string]bool{"aiControlled": enable})
}

func getSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
