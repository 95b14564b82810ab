package models

import (
	"time"
)

type RoomStatus string

const (
	StatusLobby    RoomStatus = "lobby"
	StatusActive   RoomStatus = "active"
	StatusFinished RoomStatus = "finished"
)

// Room is a data transfer object for room state. All persistent state is
// managed in the database via SessionManager; this struct is used for
// status endpoints and passing data between handlers.
type Room struct {
	ID              string
	Name            string
	Status          RoomStatus
	CurrentQuestion int
	Winners         []string
	Participants    map[string]*Participant
	CreatedAt       time.Time
	LastActivity    time.Time
	ExpiresAt       time.Time
}

// RoomSnapshot is the slice of room state the reconnection synchronizer
// reads from the store: the current question pointer and any terminal
// outcomes.
type RoomSnapshot struct {
	RoomID          string
	Status          RoomStatus
	CurrentQuestion int
	Winners         []string
}

func (s RoomStatus) IsTerminal() bool {
	return s == StatusFinished
}
