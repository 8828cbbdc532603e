package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/writeitupx/backend/internal/client"
	"github.com/writeitupx/backend/internal/config"
	"github.com/writeitupx/backend/internal/db"
	"github.com/writeitupx/backend/internal/handler"
	"github.com/writeitupx/backend/internal/service"
	"github.com/writeitupx/backend/internal/ws"
)

const aiRequestsPerMinute = 10

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := config.Load()
	ctx := context.Background()

	repo, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer repo.Close()

	if err := repo.EnsureUserSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure user schema: %v", err)
	}
	if err := repo.EnsureLetterSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure letter schema: %v", err)
	}

	google, err := client.NewGoogleClient(ctx, cfg.Google)
	if err != nil {
		log.Fatalf("Failed to configure google client: %v", err)
	}

	authSvc, err := service.NewAuthService(repo, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to configure auth service: %v", err)
	}

	letterSvc := service.NewLetterService(repo, client.NewDriveClient(google))

	suggestionClient, err := client.NewSuggestionClient(cfg.AI)
	if err != nil {
		log.Fatalf("Failed to configure suggestion client: %v", err)
	}
	suggestSvc := service.NewSuggestService(suggestionClient)

	hub := ws.NewHub(authSvc)
	defer hub.Stop()

	aiLimiter := handler.NewRateLimiter(aiRequestsPerMinute)
	defer aiLimiter.Stop()

	authHandler := handler.NewAuthHandler(authSvc, google, cfg.Server.ClientURL)
	letterHandler := handler.NewLetterHandler(letterSvc)
	suggestHandler := handler.NewSuggestHandler(suggestSvc)

	router := gin.Default()
	router.Use(handler.CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/ping", handler.Ping)
	router.GET("/", handler.Root)

	auth := router.Group("/api/auth")
	{
		auth.GET("/google/login", authHandler.GoogleLogin)
		auth.GET("/google/signup", authHandler.GoogleSignup)
		auth.GET("/google/callback", authHandler.GoogleCallback)
		auth.GET("/check-status", authHandler.CheckStatus)
		auth.POST("/refresh-token", authHandler.RefreshToken)
		auth.GET("/logout", authHandler.Logout)
	}

	letters := router.Group("/api/letters", handler.AuthMiddleware(authSvc))
	{
		letters.GET("", letterHandler.List)
		letters.POST("", letterHandler.Create)
		letters.GET("/:id", letterHandler.Get)
		letters.PUT("/:id", letterHandler.Update)
		letters.DELETE("/:id", letterHandler.Delete)
		letters.POST("/:id/save-to-drive", letterHandler.SaveToDrive)
	}

	ai := router.Group("/api/ai", handler.AuthMiddleware(authSvc), aiLimiter.Middleware())
	{
		ai.POST("/suggestions", suggestHandler.Suggestions)
	}

	router.GET("/ws", hub.HandleConnection)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
