package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/config"
)

// Client represents a single WebSocket connection with its own send
// goroutine. Inbound messages are handed to the onMessage callback set by
// the transport handler.
type Client struct {
	conn          *websocket.Conn
	send          chan []byte
	hub           *Hub
	roomID        string
	participantID string
	onMessage     func(c *Client, data []byte)

	// Rate limiting
	messageCount int
	rateLimitMu  sync.Mutex
	lastReset    time.Time

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	closeMu sync.Mutex
}

// NewClient creates a new client instance
func NewClient(conn *websocket.Conn, hub *Hub, roomID, participantID string, onMessage func(c *Client, data []byte)) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		conn:          conn,
		send:          make(chan []byte, config.ClientSendBufferSize),
		hub:           hub,
		roomID:        roomID,
		participantID: participantID,
		onMessage:     onMessage,
		lastReset:     time.Now(),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (c *Client) RoomID() string        { return c.roomID }
func (c *Client) ParticipantID() string { return c.participantID }

// Start begins the client's read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Wait blocks until the client's connection has shut down
func (c *Client) Wait() {
	<-c.ctx.Done()
}

// writePump handles outgoing messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}

			writeCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()

			if err != nil {
				log.Printf("❌ Write error (room=%s, participant=%s): %v", c.roomID, c.participantID, err)
				c.hub.metrics.IncrementBroadcastErrors()
				return
			}

		case <-ticker.C:
			// Transport-level keepalive; distinct from the application
			// pings the presence registry consumes
			pingCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()

			if err != nil {
				log.Printf("❌ Ping error (room=%s): %v", c.roomID, err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readPump handles incoming messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	for {
		readCtx, cancel := context.WithTimeout(c.ctx, config.ReadTimeout)
		_, message, err := c.conn.Read(readCtx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				c.hub.metrics.IncrementConnectionErrors()
			}
			return
		}

		if !c.checkRateLimit() {
			log.Printf("⚠️  Rate limit exceeded (room=%s, participant=%s)", c.roomID, c.participantID)
			c.hub.metrics.IncrementRateLimitViolations()
			continue
		}

		c.hub.metrics.IncrementMessagesReceived()

		if c.onMessage != nil {
			c.onMessage(c, message)
		}
	}
}

// checkRateLimit verifies the client hasn't exceeded message rate limits
func (c *Client) checkRateLimit() bool {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	now := time.Now()
	if now.Sub(c.lastReset) > config.RateLimitWindow {
		c.messageCount = 0
		c.lastReset = now
	}

	c.messageCount++
	return c.messageCount <= config.MaxMessagesPerSecond
}

// Send queues a message for sending to the client
func (c *Client) Send(message []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		// Channel full, client is too slow
		log.Printf("⚠️  Send buffer full, closing slow client (room=%s, participant=%s)", c.roomID, c.participantID)
		c.hub.metrics.IncrementBroadcastErrors()
		go c.Close()
		return false
	}
}

// Close cleanly shuts down the client connection
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	close(c.send)
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
