package models

type WSMessage struct {
	Type    string      `json:"type"`
	RoomID  string      `json:"roomId,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Client → Server message types
const (
	MsgTypePing            = "ping"
	MsgTypeLeave           = "leave"
	MsgTypeAnswer          = "answer"
	MsgTypeAdvanceQuestion = "advance_question"
	MsgTypeAnnounceWinners = "announce_winners"
)

// Server → Client message types
const (
	MsgTypeRoomState               = "room_state" // Initial state sync on connection
	MsgTypeSyncState               = "sync_state" // Missed-event replay for a reconnecting client
	MsgTypeParticipantJoined       = "participant_joined"
	MsgTypeParticipantLeft         = "participant_left"
	MsgTypeParticipantDisconnected = "participant_disconnected"
	MsgTypeParticipantReconnected  = "participant_reconnected"
	MsgTypeQuestionAdvanced        = "question_advanced"
	MsgTypeAnswerSubmitted         = "answer_submitted"
	MsgTypeWinnersAnnounced        = "winners_announced"
)
