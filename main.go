package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/handlers"
	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/security"
	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/services"
	_ "github.com/rosejohnson3923/pathfinity-app-sub011/pb_migrations"
	"github.com/rosejohnson3923/pathfinity-app-sub011/utils"
)

func main() {

	pb := pocketbase.New()

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	metrics := services.NewMetrics()
	hub := services.NewHub(metrics)
	sessions := services.NewSessionManager(pb)
	takeover := services.NewTakeoverManager(sessions, cfg.AITakeoverEnabled)
	notifier := services.NewDisconnectionNotifier(sessions, hub, takeover)
	synchronizer := services.NewReconnectionSynchronizer(sessions, hub, takeover, services.SystemClock)
	presence := services.NewPresenceService(cfg.GracePeriod, services.SystemClock, notifier, synchronizer, metrics)
	presence.SetDirectSender(hub)

	monitor, err := services.NewHeartbeatMonitor(presence, cfg.TickInterval, cfg.GracePeriod, services.SystemClock)
	if err != nil {
		log.Fatal(err)
	}

	origins := security.NewOriginValidator(cfg.AllowedOrigins)
	wsHandler := handlers.NewWSHandler(hub, presence, sessions, origins)
	roomHandlers := handlers.NewRoomHandlers(sessions, presence, takeover, hub)

	pb.OnServe().BindFunc(func(se *core.ServeEvent) error {
		go hub.Run()
		monitor.Start()

		se.Router.POST("/api/quiz/rooms", roomHandlers.CreateRoom)
		se.Router.POST("/api/quiz/rooms/{roomId}/join", roomHandlers.JoinRoom)
		se.Router.POST("/api/quiz/rooms/{roomId}/leave", roomHandlers.LeaveRoom)
		se.Router.GET("/api/quiz/rooms/{roomId}", roomHandlers.RoomStatus)
		se.Router.GET("/api/quiz/participants/{participantId}/connection", roomHandlers.ConnectionStatus)
		se.Router.POST("/api/quiz/participants/{participantId}/ai-takeover", roomHandlers.EnableAITakeover)
		se.Router.DELETE("/api/quiz/participants/{participantId}/ai-takeover", roomHandlers.DisableAITakeover)

		se.Router.GET("/ws/{roomId}", wsHandler.HandleWebSocket)

		se.Router.GET("/api/quiz/metrics", handlers.HandleMetrics(hub))
		se.Router.GET("/api/quiz/health", handlers.HandleHealth(hub))

		return se.Next()
	})

	pb.OnTerminate().BindFunc(func(te *core.TerminateEvent) error {
		monitor.Stop()
		return te.Next()
	})

	if err := pb.Start(); err != nil {
		log.Fatal(err)
	}
}
