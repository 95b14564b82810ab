package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/services"
)

// HandleMetrics returns presence and WebSocket server metrics
func HandleMetrics(hub *services.Hub) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snapshot := hub.GetMetrics()
		return e.JSON(http.StatusOK, snapshot)
	}
}

// HandleHealth returns server health status
func HandleHealth(hub *services.Hub) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snapshot := hub.GetMetrics()

		status := http.StatusOK
		if snapshot.HealthStatus == "critical" {
			status = http.StatusServiceUnavailable
		}

		response := map[string]interface{}{
			"status":               snapshot.HealthStatus,
			"active_connections":   snapshot.ActiveConnections,
			"active_rooms":         snapshot.ActiveRooms,
			"disconnects_declared": snapshot.DisconnectsDeclared,
			"reconnections":        snapshot.Reconnections,
			"uptime_seconds":       snapshot.UptimeSeconds,
		}

		return e.JSON(status, response)
	}
}
