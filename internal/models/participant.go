package models

import "time"

// ConnectionState is the liveness state of a tracked participant.
//
// The legal transitions are:
//
//	connected → expiring → disconnected → reconnecting → connected
//
// "expiring" means the grace deadline has elapsed and the disconnection
// notify is in flight; "reconnecting" means a ping arrived for a
// disconnected participant and the synchronizer is in flight. A record
// never jumps straight from connected to disconnected or from
// disconnected back to connected.
type ConnectionState string

const (
	StateConnected    ConnectionState = "connected"
	StateExpiring     ConnectionState = "expiring"
	StateDisconnected ConnectionState = "disconnected"
	StateReconnecting ConnectionState = "reconnecting"
)

// ConnectionStatus is a read-only snapshot of a participant's liveness
// record, as returned by the presence registry. Tracked is false when the
// participant has never registered (or has been unregistered), in which
// case the remaining fields are zero.
type ConnectionStatus struct {
	ParticipantID    string          `json:"participantId"`
	RoomID           string          `json:"roomId,omitempty"`
	Tracked          bool            `json:"tracked"`
	State            ConnectionState `json:"state,omitempty"`
	LastPingAt       time.Time       `json:"lastPingAt,omitempty"`
	GraceDeadline    time.Time       `json:"graceDeadline,omitempty"`
	AITakeoverActive bool            `json:"aiTakeoverActive"`
}

type ParticipantRole string

const (
	RoleHost   ParticipantRole = "host"
	RolePlayer ParticipantRole = "player"
)

// Participant is a data transfer object for a room member. Persistent
// state lives in the database via SessionManager; this struct is used for
// status endpoints and broadcast payloads.
type Participant struct {
	ID           string          `json:"id"`
	RoomID       string          `json:"roomId"`
	Name         string          `json:"name"`
	Role         ParticipantRole `json:"role"`
	Connected    bool            `json:"connected"`
	AIControlled bool            `json:"aiControlled"`
	JoinedAt     time.Time       `json:"joinedAt"`
}
