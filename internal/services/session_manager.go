package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/security"
)

// SessionManager is the PocketBase-backed durable store for rooms,
// participants, and the per-room append-only session event log. It
// implements SessionStore for the presence subsystem.
type SessionManager struct {
	app core.App
}

func NewSessionManager(app core.App) *SessionManager {
	return &SessionManager{
		app: app,
	}
}

// CreateRoom creates a new room in the database
func (sm *SessionManager) CreateRoom(name string) (*core.Record, error) {
	sanitized, err := security.ValidateRoomName(name)
	if err != nil {
		return nil, err
	}

	collection, err := sm.app.FindCollectionByNameOrId("rooms")
	if err != nil {
		return nil, fmt.Errorf("failed to find rooms collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("name", sanitized)
	record.Set("status", string(models.StatusLobby))
	record.Set("current_question", 0)
	record.Set("expires_at", time.Now().Add(24*time.Hour))
	record.Set("last_activity", time.Now())
	// host_participant_id will be set when the first participant joins

	if err := sm.app.Save(record); err != nil {
		return nil, fmt.Errorf("failed to save room record: %w", err)
	}

	return record, nil
}

// GetRoom retrieves a room by ID from the database
func (sm *SessionManager) GetRoom(id string) (*core.Record, error) {
	record, err := sm.app.FindRecordById("rooms", id)
	if err != nil {
		return nil, fmt.Errorf("room not found: %w", err)
	}
	return record, nil
}

// UpdateRoomActivity updates the last_activity timestamp
func (sm *SessionManager) UpdateRoomActivity(roomID string) error {
	record, err := sm.GetRoom(roomID)
	if err != nil {
		return err
	}

	record.Set("last_activity", time.Now())
	return sm.app.Save(record)
}

// AddParticipant creates a new participant in the database
func (sm *SessionManager) AddParticipant(roomID, name string, role models.ParticipantRole, sessionCookie string) (*core.Record, error) {
	sanitized, err := security.ValidateParticipantName(name)
	if err != nil {
		return nil, err
	}

	collection, err := sm.app.FindCollectionByNameOrId("participants")
	if err != nil {
		return nil, fmt.Errorf("failed to find participants collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("room_id", roomID)
	record.Set("name", sanitized)
	record.Set("role", string(role))
	record.Set("connected", true)
	record.Set("ai_controlled", false)
	record.Set("session_cookie", sessionCookie)
	record.Set("joined_at", time.Now())
	record.Set("last_seen", time.Now())

	if err := sm.app.Save(record); err != nil {
		return nil, fmt.Errorf("failed to save participant: %w", err)
	}

	// Set as room host if this is the first participant
	room, err := sm.GetRoom(roomID)
	if err == nil && room.GetString("host_participant_id") == "" {
		room.Set("host_participant_id", record.Id)
		sm.app.Save(room)
	}

	sm.UpdateRoomActivity(roomID)

	return record, nil
}

// GetParticipant retrieves a participant by ID
func (sm *SessionManager) GetParticipant(participantID string) (*core.Record, error) {
	return sm.app.FindRecordById("participants", participantID)
}

// GetParticipantBySession retrieves a participant by session cookie and room
func (sm *SessionManager) GetParticipantBySession(roomID, sessionCookie string) (*core.Record, error) {
	records, err := sm.app.FindRecordsByFilter(
		"participants",
		"room_id = {:roomId} && session_cookie = {:session}",
		"",
		1,
		0,
		map[string]any{
			"roomId":  roomID,
			"session": sessionCookie,
		},
	)
	if err != nil || len(records) == 0 {
		return nil, fmt.Errorf("participant not found")
	}
	return records[0], nil
}

// GetRoomParticipants retrieves all participants for a room
func (sm *SessionManager) GetRoomParticipants(roomID string) ([]*core.Record, error) {
	records, err := sm.app.FindRecordsByFilter(
		"participants",
		"room_id = {:roomId}",
		"joined_at",
		100,
		0,
		map[string]any{"roomId": roomID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	return records, nil
}

// IsRoomHost checks if a participant is the room host
func (sm *SessionManager) IsRoomHost(roomID, participantID string) bool {
	room, err := sm.GetRoom(roomID)
	if err != nil {
		return false
	}
	return room.GetString("host_participant_id") == participantID
}

// SetParticipantConnected marks a participant's persisted status connected
func (sm *SessionManager) SetParticipantConnected(participantID string, at time.Time) error {
	record, err := sm.GetParticipant(participantID)
	if err != nil {
		return fmt.Errorf("participant not found: %w", err)
	}

	record.Set("connected", true)
	record.Set("last_seen", at)
	return sm.app.Save(record)
}

// SetParticipantDisconnected marks a participant disconnected and captures
// the event-log cursor in effect at the moment of disconnection
func (sm *SessionManager) SetParticipantDisconnected(participantID string, at time.Time, lastSeq int64) error {
	record, err := sm.GetParticipant(participantID)
	if err != nil {
		return fmt.Errorf("participant not found: %w", err)
	}

	record.Set("connected", false)
	record.Set("disconnected_at", at)
	record.Set("disconnected_seq", lastSeq)
	return sm.app.Save(record)
}

// ParticipantName returns a participant's display name
func (sm *SessionManager) ParticipantName(participantID string) (string, error) {
	record, err := sm.GetParticipant(participantID)
	if err != nil {
		return "", fmt.Errorf("participant not found: %w", err)
	}
	return record.GetString("name"), nil
}

// SetAIControlled updates the participant's AI takeover flag
func (sm *SessionManager) SetAIControlled(participantID string, controlled bool) error {
	record, err := sm.GetParticipant(participantID)
	if err != nil {
		return fmt.Errorf("participant not found: %w", err)
	}

	record.Set("ai_controlled", controlled)
	return sm.app.Save(record)
}

// AIControlled reads the participant's AI takeover flag
func (sm *SessionManager) AIControlled(participantID string) (bool, error) {
	record, err := sm.GetParticipant(participantID)
	if err != nil {
		return false, fmt.Errorf("participant not found: %w", err)
	}
	return record.GetBool("ai_controlled"), nil
}

// AppendEvent appends one entry to a room's event log, assigning the next
// per-room sequence number. PocketBase serializes writes on a single
// SQLite writer, which keeps max(seq)+1 safe without an extra lock.
func (sm *SessionManager) AppendEvent(roomID, eventType string, payload interface{}) (*models.SessionEvent, error) {
	collection, err := sm.app.FindCollectionByNameOrId("session_events")
	if err != nil {
		return nil, fmt.Errorf("failed to find session_events collection: %w", err)
	}

	lastSeq, err := sm.LatestEventSeq(roomID)
	if err != nil {
		return nil, err
	}
	seq := lastSeq + 1

	var payloadJSON []byte
	if payload != nil {
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event payload: %w", err)
		}
	}

	now := time.Now()
	record := core.NewRecord(collection)
	record.Set("room_id", roomID)
	record.Set("seq", seq)
	record.Set("type", eventType)
	if payloadJSON != nil {
		record.Set("payload", payloadJSON)
	}
	record.Set("emitted_at", now)

	if err := sm.app.Save(record); err != nil {
		return nil, fmt.Errorf("failed to save session event: %w", err)
	}

	sm.UpdateRoomActivity(roomID)

	return &models.SessionEvent{
		ID:        record.Id,
		RoomID:    roomID,
		Seq:       seq,
		Type:      eventType,
		Payload:   payloadJSON,
		EmittedAt: now,
	}, nil
}

// LatestEventSeq returns the highest sequence number in a room's event
// log, or 0 for an empty log
func (sm *SessionManager) LatestEventSeq(roomID string) (int64, error) {
	records, err := sm.app.FindRecordsByFilter(
		"session_events",
		"room_id = {:roomId}",
		"-seq",
		1,
		0,
		map[string]any{"roomId": roomID},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to read event log: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	return int64(records[0].GetInt("seq")), nil
}

const eventPageSize = 1000

// EventsSince returns every event with seq > afterSeq in seq order. A
// participant can miss more events than fit in one query, so the log is
// drained page by page on the seq cursor; a capped single query would
// silently truncate the summary.
func (sm *SessionManager) EventsSince(roomID string, afterSeq int64) ([]models.SessionEvent, error) {
	return collectEventPages(afterSeq, eventPageSize, func(cursor int64, limit int) ([]models.SessionEvent, error) {
		records, err := sm.app.FindRecordsByFilter(
			"session_events",
			"room_id = {:roomId} && seq > {:afterSeq}",
			"seq",
			limit,
			0,
			map[string]any{
				"roomId":   roomID,
				"afterSeq": cursor,
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to read missed events: %w", err)
		}

		events := make([]models.SessionEvent, 0, len(records))
		for _, record := range records {
			var payload json.RawMessage
			if raw := record.GetString("payload"); raw != "" {
				payload = json.RawMessage(raw)
			}
			events = append(events, models.SessionEvent{
				ID:        record.Id,
				RoomID:    roomID,
				Seq:       int64(record.GetInt("seq")),
				Type:      record.GetString("type"),
				Payload:   payload,
				EmittedAt: record.GetDateTime("emitted_at").Time(),
			})
		}
		return events, nil
	})
}

// collectEventPages drains fetch one page at a time, advancing the seq
// cursor past the last event returned, until a page comes back short.
func collectEventPages(afterSeq int64, pageSize int, fetch func(afterSeq int64, limit int) ([]models.SessionEvent, error)) ([]models.SessionEvent, error) {
	var events []models.SessionEvent
	cursor := afterSeq
	for {
		page, err := fetch(cursor, pageSize)
		if err != nil {
			return nil, err
		}
		events = append(events, page...)
		if len(page) < pageSize {
			return events, nil
		}
		cursor = page[len(page)-1].Seq
	}
}

// RoomSnapshot reads the slice of room state the reconnection synchronizer
// needs: current question pointer, status, and terminal outcomes
func (sm *SessionManager) RoomSnapshot(roomID string) (*models.RoomSnapshot, error) {
	room, err := sm.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	var winners []string
	if raw := room.GetString("winners"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &winners); err != nil {
			log.Printf("Failed to decode winners for room %s: %v", roomID, err)
		}
	}

	return &models.RoomSnapshot{
		RoomID:          roomID,
		Status:          models.RoomStatus(room.GetString("status")),
		CurrentQuestion: room.GetInt("current_question"),
		Winners:         winners,
	}, nil
}

// AdvanceQuestion moves a room's question pointer forward and appends the
// corresponding event to the log. Returns the new pointer and the event.
func (sm *SessionManager) AdvanceQuestion(roomID string) (int, *models.SessionEvent, error) {
	room, err := sm.GetRoom(roomID)
	if err != nil {
		return 0, nil, err
	}

	next := room.GetInt("current_question") + 1
	room.Set("current_question", next)
	room.Set("status", string(models.StatusActive))
	room.Set("last_activity", time.Now())
	if err := sm.app.Save(room); err != nil {
		return 0, nil, fmt.Errorf("failed to advance question: %w", err)
	}

	event, err := sm.AppendEvent(roomID, models.EventQuestionAdvanced, map[string]interface{}{
		"question": next,
	})
	if err != nil {
		return 0, nil, err
	}

	return next, event, nil
}

// SetWinners records a room's terminal outcome and appends the
// announcement to the event log
func (sm *SessionManager) SetWinners(roomID string, winners []string) (*models.SessionEvent, error) {
	room, err := sm.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	winnersJSON, err := json.Marshal(winners)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal winners: %w", err)
	}

	room.Set("winners", winnersJSON)
	room.Set("status", string(models.StatusFinished))
	room.Set("last_activity", time.Now())
	if err := sm.app.Save(room); err != nil {
		return nil, fmt.Errorf("failed to save winners: %w", err)
	}

	return sm.AppendEvent(roomID, models.EventWinnersAnnounced, map[string]interface{}{
		"winners": winners,
	})
}

// MarkParticipantLeft records a clean departure. The row is kept for
// scores and history; only the connection status changes.
func (sm *SessionManager) MarkParticipantLeft(participantID string) error {
	record, err := sm.GetParticipant(participantID)
	if err != nil {
		return fmt.Errorf("participant not found: %w", err)
	}

	record.Set("connected", false)
	record.Set("last_seen", time.Now())
	return sm.app.Save(record)
}

// ParticipantFromRecord converts a persisted participant row to its DTO
func ParticipantFromRecord(record *core.Record) *models.Participant {
	return &models.Participant{
		ID:           record.Id,
		RoomID:       record.GetString("room_id"),
		Name:         record.GetString("name"),
		Role:         models.ParticipantRole(record.GetString("role")),
		Connected:    record.GetBool("connected"),
		AIControlled: record.GetBool("ai_controlled"),
		JoinedAt:     record.GetDateTime("joined_at").Time(),
	}
}
