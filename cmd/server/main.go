package main

import (
	"context"
	"net/http"
	"os"

	"sixthed-backend/internal/ability"
	httpHandler "sixthed-backend/internal/delivery/http"
	"sixthed-backend/internal/delivery/http/middleware"
	"sixthed-backend/internal/delivery/websocket"
	"sixthed-backend/internal/catalog"
	"sixthed-backend/internal/engine"
	"sixthed-backend/internal/events"
	"sixthed-backend/internal/logger"
	"sixthed-backend/internal/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := logger.Init(nil); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()

	cat, err := catalog.LoadDefault()
	if err != nil {
		log.Fatal("failed to load card catalog", zap.Error(err))
	}

	eng := engine.New(cat, ability.NewActivatedRegistry(), ability.NewSpellRegistry())

	gameStorage := repository.NewGameStorage()
	bus := events.NewBus()
	gameRepo := repository.NewGameRepository(gameStorage, bus)

	gameHandler := httpHandler.NewGameHandler(eng, cat, gameRepo)
	healthHandler := httpHandler.NewHealthHandler()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub(eng, gameRepo)
	go hub.Run(ctx)
	wsHandler := websocket.NewHandler(hub)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ZapLogger())
	r.Use(middleware.ZapRecovery())

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:3000"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	r.GET("/health", healthHandler.HealthCheck)

	api := r.Group("/api/v1")
	{
		api.POST("/games", gameHandler.CreateGame)
		api.GET("/games", gameHandler.ListGames)
		api.GET("/games/:id", gameHandler.GetGame)
		api.GET("/games/:id/legal-actions", gameHandler.LegalActions)
		api.POST("/games/:id/actions", gameHandler.SubmitAction)
		api.POST("/games/:id/describe", gameHandler.DescribeAction)
		api.GET("/games/:id/replay", gameHandler.Replay)
	}

	r.GET("/ws", func(c *gin.Context) {
		wsHandler.ServeWS(c.Writer, c.Request)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	log.Info("sixthed backend starting",
		zap.String("port", port),
		zap.String("health", "http://localhost:"+port+"/health"),
		zap.String("websocket", "ws://localhost:"+port+"/ws"))

	if err := r.Run(":" + port); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed to start", zap.Error(err))
	}
}
