package services

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics tracks presence subsystem and WebSocket server counters
type Metrics struct {
	// Connection metrics
	activeConnections int64
	totalConnections  int64
	activeRooms       int64

	// Message metrics
	messagesReceived int64
	messagesSent     int64

	// Presence metrics
	disconnectsDeclared int64
	reconnections       int64
	missedEventsServed  int64
	sweepErrors         int64

	// Error metrics
	connectionErrors    int64
	broadcastErrors     int64
	rateLimitViolations int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// Connection tracking
func (m *Metrics) IncrementConnections() {
	atomic.AddInt64(&m.activeConnections, 1)
	atomic.AddInt64(&m.totalConnections, 1)
}

func (m *Metrics) DecrementConnections() {
	atomic.AddInt64(&m.activeConnections, -1)
}

func (m *Metrics) IncrementRooms() {
	atomic.AddInt64(&m.activeRooms, 1)
}

func (m *Metrics) DecrementRooms() {
	atomic.AddInt64(&m.activeRooms, -1)
}

// Message tracking
func (m *Metrics) IncrementMessagesReceived() {
	atomic.AddInt64(&m.messagesReceived, 1)
}

func (m *Metrics) IncrementMessagesSent() {
	atomic.AddInt64(&m.messagesSent, 1)
}

// Presence tracking
func (m *Metrics) IncrementDisconnectsDeclared() {
	atomic.AddInt64(&m.disconnectsDeclared, 1)
}

func (m *Metrics) IncrementReconnections() {
	atomic.AddInt64(&m.reconnections, 1)
}

func (m *Metrics) AddMissedEventsServed(n int) {
	atomic.AddInt64(&m.missedEventsServed, int64(n))
}

func (m *Metrics) IncrementSweepErrors() {
	atomic.AddInt64(&m.sweepErrors, 1)
}

// Error tracking
func (m *Metrics) IncrementConnectionErrors() {
	atomic.AddInt64(&m.connectionErrors, 1)
}

func (m *Metrics) IncrementBroadcastErrors() {
	atomic.AddInt64(&m.broadcastErrors, 1)
}

func (m *Metrics) IncrementRateLimitViolations() {
	atomic.AddInt64(&m.rateLimitViolations, 1)
}

// MetricsSnapshot represents a point-in-time view of metrics
type MetricsSnapshot struct {
	// Connection metrics
	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	ActiveRooms       int64 `json:"active_rooms"`

	// Message metrics
	MessagesReceived int64 `json:"messages_received"`
	MessagesSent     int64 `json:"messages_sent"`

	// Presence metrics
	DisconnectsDeclared int64 `json:"disconnects_declared"`
	Reconnections       int64 `json:"reconnections"`
	MissedEventsServed  int64 `json:"missed_events_served"`
	SweepErrors         int64 `json:"sweep_errors"`

	// Error metrics
	ConnectionErrors    int64 `json:"connection_errors"`
	BroadcastErrors     int64 `json:"broadcast_errors"`
	RateLimitViolations int64 `json:"rate_limit_violations"`

	// Resource metrics
	UptimeSeconds int64  `json:"uptime_seconds"`
	MemoryUsageMB uint64 `json:"memory_usage_mb"`
	NumGoroutines int    `json:"num_goroutines"`

	HealthStatus string `json:"health_status"`
}

// Snapshot returns a point-in-time view of all metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(m.startTime)

	return MetricsSnapshot{
		ActiveConnections:   atomic.LoadInt64(&m.activeConnections),
		TotalConnections:    atomic.LoadInt64(&m.totalConnections),
		ActiveRooms:         atomic.LoadInt64(&m.activeRooms),
		MessagesReceived:    atomic.LoadInt64(&m.messagesReceived),
		MessagesSent:        atomic.LoadInt64(&m.messagesSent),
		DisconnectsDeclared: atomic.LoadInt64(&m.disconnectsDeclared),
		Reconnections:       atomic.LoadInt64(&m.reconnections),
		MissedEventsServed:  atomic.LoadInt64(&m.missedEventsServed),
		SweepErrors:         atomic.LoadInt64(&m.sweepErrors),
		ConnectionErrors:    atomic.LoadInt64(&m.connectionErrors),
		BroadcastErrors:     atomic.LoadInt64(&m.broadcastErrors),
		RateLimitViolations: atomic.LoadInt64(&m.rateLimitViolations),
		UptimeSeconds:       int64(uptime.Seconds()),
		MemoryUsageMB:       memStats.Alloc / 1024 / 1024,
		NumGoroutines:       runtime.NumGoroutine(),
		HealthStatus:        m.calculateHealthStatus(),
	}
}

// calculateHealthStatus determines overall system health
func (m *Metrics) calculateHealthStatus() string {
	activeConns := atomic.LoadInt64(&m.activeConnections)
	activeRooms := atomic.LoadInt64(&m.activeRooms)
	errors := atomic.LoadInt64(&m.connectionErrors) + atomic.LoadInt64(&m.broadcastErrors) + atomic.LoadInt64(&m.sweepErrors)

	if activeConns > 9000 || activeRooms > 900 {
		return "critical"
	}

	if activeConns > 8000 || activeRooms > 800 || errors > 100 {
		return "warning"
	}

	return "healthy"
}
