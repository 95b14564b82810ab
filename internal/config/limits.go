package config

import "time"

// WebSocket connection limits and constraints
const (
	// Connection limits
	MaxConnectionsPerRoom = 50
	MaxRoomsPerInstance   = 1000
	MaxTotalConnections   = 10000

	// Rate limiting
	MaxMessagesPerSecond = 10
	RateLimitWindow      = time.Second

	// Timeouts
	WriteTimeout = 10 * time.Second
	ReadTimeout  = 60 * time.Second
	PingInterval = 30 * time.Second

	// Presence defaults, overridable via environment (see utils.LoadConfig)
	DefaultGracePeriod  = 15 * time.Second
	DefaultTickInterval = 5 * time.Second

	// Channel buffers
	ClientSendBufferSize   = 256
	HubBroadcastBufferSize = 256
)
