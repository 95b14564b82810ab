package security

import (
	"fmt"

	"github.com/coder/websocket"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
)

// WebSocket message type validation
var validMessageTypes = map[string]bool{
	models.MsgTypePing:            true,
	models.MsgTypeLeave:           true,
	models.MsgTypeAnswer:          true,
	models.MsgTypeAdvanceQuestion: true,
	models.MsgTypeAnnounceWinners: true,
}

// IsValidMessageType checks if a client WebSocket message type is valid
func IsValidMessageType(msgType string) bool {
	return validMessageTypes[msgType]
}

// OriginValidator validates WebSocket connection origins
type OriginValidator struct {
	allowedPatterns []string
}

// NewOriginValidator creates a new origin validator
func NewOriginValidator(patterns []string) *OriginValidator {
	return &OriginValidator{
		allowedPatterns: patterns,
	}
}

// GetAcceptOptions returns websocket.AcceptOptions with origin patterns
func (ov *OriginValidator) GetAcceptOptions() *websocket.AcceptOptions {
	return &websocket.AcceptOptions{
		OriginPatterns: ov.allowedPatterns,
	}
}

// ValidateMessagePayload validates client WebSocket message payload
// structure before it reaches the handlers
func ValidateMessagePayload(msgType string, payload interface{}) error {
	switch msgType {
	case models.MsgTypePing, models.MsgTypeLeave, models.MsgTypeAdvanceQuestion:
		// No payload required
		return nil
	}

	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid payload format")
	}

	switch msgType {
	case models.MsgTypeAnswer:
		value, ok := payloadMap["value"].(string)
		if !ok {
			return fmt.Errorf("answer payload must have string 'value' field")
		}
		if len(value) > MaxAnswerLength {
			return fmt.Errorf("answer too long (max %d characters)", MaxAnswerLength)
		}

	case models.MsgTypeAnnounceWinners:
		if _, ok := payloadMap["winners"]; !ok {
			return fmt.Errorf("winners payload must have 'winners' field")
		}
	}

	return nil
}
