package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/subosito/gotenv"

	"github.com/moodlabs/moodchat/adapters/hasher"
	handler "github.com/moodlabs/moodchat/adapters/http"
	"github.com/moodlabs/moodchat/adapters/llm"
	"github.com/moodlabs/moodchat/adapters/message_broker"
	"github.com/moodlabs/moodchat/adapters/websocket"
	"github.com/moodlabs/moodchat/config"
	"github.com/moodlabs/moodchat/usecase"
)

func main() {
	gotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	geminiLlm, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal(err)
	}

	svc := usecase.NewChatService(geminiLlm, cfg.GenerationTimeout)
	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	server := websocket.NewServer(svc, broker)
	go server.RunWebsocketHub()

	chatHandler := handler.NewChatHandler(svc, broker, hasher.New(), cfg)

	e := echo.New()

	// Security middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // In production, specify exact origins
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-API-Key",
			"X-API-Secret",
			"Content-Length",
		},
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Request size limit
	e.Use(middleware.BodyLimit("1MB"))

	// JWT auth for WebSocket (same as HTTP)
	wsGroup := e.Group("/ws")
	wsGroup.Use(chatHandler.JWTMiddleware)
	wsGroup.GET("", server.Handler)

	// HTTP API routes
	api := e.Group("/api/v1")

	// Public endpoints (no auth required)
	api.GET("/health", chatHandler.HealthCheck)
	api.POST("/auth/token", chatHandler.GenerateJWT)

	// Operator endpoints (API credentials required)
	api.POST("/system/notice", chatHandler.SystemNotice)

	// Chat endpoints (JWT auth required)
	chat := api.Group("/chat")
	chat.Use(chatHandler.JWTMiddleware)
	chat.Use(chatHandler.RateLimitMiddleware)

	chat.POST("", chatHandler.Chat)
	chat.POST("/title", chatHandler.ChatTitle)

	log.Println("Starting server on :" + cfg.Port)
	log.Println("Available endpoints:")
	log.Println("  GET  /api/v1/health       - Health check")
	log.Println("  POST /api/v1/auth/token   - Get JWT token")
	log.Println("  POST /api/v1/chat         - Generate a reply (JWT required)")
	log.Println("  POST /api/v1/chat/title   - Generate a conversation title (JWT required)")
	log.Println("  POST /api/v1/system/notice - Broadcast a system notice (API credentials required)")
	log.Println("  GET  /ws                  - WebSocket chat (JWT required)")
	log.Fatal(e.Start(":" + cfg.Port))
}
