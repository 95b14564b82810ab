package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/config"
	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
)

// Hub is the room-scoped message bus: it fans a message out to every
// client connected to a room, and can deliver to a single participant
// (used for missed-event replay, which must not be broadcast).
type Hub struct {
	// Room connections: roomId -> set of clients
	rooms map[string]map[*Client]bool

	// Most recent client per participant, for direct delivery
	participants map[string]*Client

	broadcast  chan *BroadcastMessage
	register   chan *Client
	unregister chan *Client

	metrics *Metrics
	mu      sync.RWMutex
}

type BroadcastMessage struct {
	RoomID  string
	Message *models.WSMessage
}

func NewHub(metrics *Metrics) *Hub {
	return &Hub{
		rooms:        make(map[string]map[*Client]bool),
		participants: make(map[string]*Client),
		broadcast:    make(chan *BroadcastMessage, config.HubBroadcastBufferSize),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		metrics:      metrics,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.broadcastToRoom(msg)
		}
	}
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[c.roomID] == nil {
		h.rooms[c.roomID] = make(map[*Client]bool)
		h.metrics.IncrementRooms()
	}
	h.rooms[c.roomID][c] = true

	if c.participantID != "" {
		h.participants[c.participantID] = c
	}
	h.metrics.IncrementConnections()

	log.Printf("✓ WebSocket registered: room=%s participant=%s (total connections in room: %d)",
		c.roomID, c.participantID, len(h.rooms[c.roomID]))
}

func (h *Hub) unregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	if _, exists := clients[c]; !exists {
		return
	}

	delete(clients, c)
	if h.participants[c.participantID] == c {
		delete(h.participants, c.participantID)
	}
	h.metrics.DecrementConnections()

	// Clean up empty rooms
	if len(clients) == 0 {
		delete(h.rooms, c.roomID)
		h.metrics.DecrementRooms()
	}
}

func (h *Hub) broadcastToRoom(msg *BroadcastMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[msg.RoomID]))
	for c := range h.rooms[msg.RoomID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(msg.Message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		h.metrics.IncrementBroadcastErrors()
		return
	}

	for _, c := range clients {
		if c.Send(data) {
			h.metrics.IncrementMessagesSent()
		}
	}
}

// BroadcastToRoom queues a message for every client in a room. Delivery is
// best-effort and never blocks the caller; a full queue is counted as a
// broadcast error and dropped.
func (h *Hub) BroadcastToRoom(roomID string, message *models.WSMessage) {
	select {
	case h.broadcast <- &BroadcastMessage{RoomID: roomID, Message: message}:
	default:
		log.Printf("⚠️  Broadcast queue full, dropping message (room=%s, type=%s)", roomID, message.Type)
		h.metrics.IncrementBroadcastErrors()
	}
}

// SendToClient delivers a message to one client only
func (h *Hub) SendToClient(c *Client, message *models.WSMessage) bool {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return false
	}
	if c.Send(data) {
		h.metrics.IncrementMessagesSent()
		return true
	}
	return false
}

// SendToParticipant delivers a message to a participant's current
// connection, if they have one
func (h *Hub) SendToParticipant(participantID string, message *models.WSMessage) bool {
	h.mu.RLock()
	c, ok := h.participants[participantID]
	h.mu.RUnlock()

	if !ok {
		return false
	}
	return h.SendToClient(c, message)
}

// Register queues a client for registration with the hub
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister queues a client for removal from the hub
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// GetMetrics returns a snapshot of the hub's metrics
func (h *Hub) GetMetrics() MetricsSnapshot {
	return h.metrics.Snapshot()
}
