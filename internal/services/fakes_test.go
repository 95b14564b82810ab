package services_test

import (
	"fmt"
	"sync"
	"time"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
)

// fakeClock lets tests single-step time instead of sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeStore is an in-memory SessionStore with injectable failures
type fakeStore struct {
	mu sync.Mutex

	names           map[string]string
	connected       map[string]bool
	aiControlled    map[string]bool
	disconnectedAt  map[string]time.Time
	disconnectedSeq map[string]int64
	events          map[string][]models.SessionEvent
	snapshots       map[string]*models.RoomSnapshot

	// Remaining injected failures per operation
	failDisconnect int
	failConnect    int
	failSnapshot   int
	failEvents     int
	failLatestSeq  int

	setAIControlledCalls int
	connectCalls         int
	disconnectCalls      int

	// Invoked at the start of SetParticipantDisconnected, before the
	// write lands, to model calls racing an in-flight sweep
	onDisconnect func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		names:           make(map[string]string),
		connected:       make(map[string]bool),
		aiControlled:    make(map[string]bool),
		disconnectedAt:  make(map[string]time.Time),
		disconnectedSeq: make(map[string]int64),
		events:          make(map[string][]models.SessionEvent),
		snapshots:       make(map[string]*models.RoomSnapshot),
	}
}

func (s *fakeStore) addParticipant(participantID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[participantID] = name
	s.connected[participantID] = true
}

func (s *fakeStore) addEvent(roomID string, seq int64, eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[roomID] = append(s.events[roomID], models.SessionEvent{
		ID:     fmt.Sprintf("evt%d", seq),
		RoomID: roomID,
		Seq:    seq,
		Type:   eventType,
	})
}

func (s *fakeStore) setSnapshot(roomID string, currentQuestion int, winners []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[roomID] = &models.RoomSnapshot{
		RoomID:          roomID,
		Status:          models.StatusActive,
		CurrentQuestion: currentQuestion,
		Winners:         winners,
	}
}

func (s *fakeStore) isConnected(participantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected[participantID]
}

func (s *fakeStore) isAIControlled(participantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aiControlled[participantID]
}

func (s *fakeStore) SetParticipantConnected(participantID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failConnect > 0 {
		s.failConnect--
		return fmt.Errorf("store unavailable")
	}
	s.connectCalls++
	s.connected[participantID] = true
	return nil
}

func (s *fakeStore) SetParticipantDisconnected(participantID string, at time.Time, lastSeq int64) error {
	if s.onDisconnect != nil {
		s.onDisconnect()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDisconnect > 0 {
		s.failDisconnect--
		return fmt.Errorf("store unavailable")
	}
	s.disconnectCalls++
	s.connected[participantID] = false
	s.disconnectedAt[participantID] = at
	s.disconnectedSeq[participantID] = lastSeq
	return nil
}

func (s *fakeStore) ParticipantName(participantID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.names[participantID]
	if !ok {
		return "", fmt.Errorf("participant not found")
	}
	return name, nil
}

func (s *fakeStore) SetAIControlled(participantID string, controlled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setAIControlledCalls++
	s.aiControlled[participantID] = controlled
	return nil
}

func (s *fakeStore) AIControlled(participantID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aiControlled[participantID], nil
}

func (s *fakeStore) LatestEventSeq(roomID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLatestSeq > 0 {
		s.failLatestSeq--
		return 0, fmt.Errorf("store unavailable")
	}
	var last int64
	for _, evt := range s.events[roomID] {
		if evt.Seq > last {
			last = evt.Seq
		}
	}
	return last, nil
}

func (s *fakeStore) EventsSince(roomID string, afterSeq int64) ([]models.SessionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failEvents > 0 {
		s.failEvents--
		return nil, fmt.Errorf("store unavailable")
	}
	var out []models.SessionEvent
	for _, evt := range s.events[roomID] {
		if evt.Seq > afterSeq {
			out = append(out, evt)
		}
	}
	return out, nil
}

func (s *fakeStore) RoomSnapshot(roomID string) (*models.RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSnapshot > 0 {
		s.failSnapshot--
		return nil, fmt.Errorf("store unavailable")
	}
	if snap, ok := s.snapshots[roomID]; ok {
		copied := *snap
		return &copied, nil
	}
	return &models.RoomSnapshot{RoomID: roomID, Status: models.StatusActive}, nil
}

// fakeSender records per-participant direct deliveries
type fakeSender struct {
	mu       sync.Mutex
	messages map[string][]*models.WSMessage
}

func newFakeSender() *fakeSender {
	return &fakeSender{messages: make(map[string][]*models.WSMessage)}
}

func (s *fakeSender) SendToParticipant(participantID string, message *models.WSMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[participantID] = append(s.messages[participantID], message)
	return true
}

func (s *fakeSender) sent(participantID string) []*models.WSMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[participantID]
}

// fakeBus records every broadcast
type fakeBus struct {
	mu       sync.Mutex
	messages []*models.WSMessage
}

func newFakeBus() *fakeBus {
	return &fakeBus{}
}

func (b *fakeBus) BroadcastToRoom(roomID string, message *models.WSMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message)
}

func (b *fakeBus) byType(msgType string) []*models.WSMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*models.WSMessage
	for _, msg := range b.messages {
		if msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}

func (b *fakeBus) count(msgType string) int {
	return len(b.byType(msgType))
}
