// Package main runs the Chayo onboarding and chat API server with WebSocket
// progress events and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chayo-app/backend/config"
	"github.com/chayo-app/backend/internal/auth"
	"github.com/chayo-app/backend/internal/chat"
	"github.com/chayo-app/backend/internal/memory"
	"github.com/chayo-app/backend/internal/middleware"
	"github.com/chayo-app/backend/internal/organizations"
	"github.com/chayo-app/backend/internal/prompts"
	"github.com/chayo-app/backend/internal/questions"
	"github.com/chayo-app/backend/internal/realtime"
	"github.com/chayo-app/backend/internal/scraper"
	"github.com/chayo-app/backend/internal/setup"
	"github.com/chayo-app/backend/internal/vibecard"
	"github.com/chayo-app/backend/pkg/ai"
	"github.com/chayo-app/backend/pkg/database"
	"github.com/chayo-app/backend/pkg/queue"
	"github.com/chayo-app/backend/pkg/redis"
	"github.com/chayo-app/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	aiClient := ai.NewClient(ai.ClientConfig{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		DefaultModel:   cfg.OpenAI.ChatModel,
		EmbeddingModel: cfg.OpenAI.EmbeddingModel,
	}, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Organizations
	orgRepo := organizations.NewRepository(pool)
	orgResolver := organizations.NewResolver(orgRepo, logger)
	orgHandler := organizations.NewHandler(orgRepo)

	// Question ledger
	questionRepo := questions.NewRepository(pool)
	questionHandler := questions.NewHandler(questionRepo)

	// Knowledge store (pgvector-backed conversation memory)
	memRepo := memory.NewRepository(pool)
	knowledge := memory.NewStore(memRepo, aiClient, aiClient, cfg.OpenAI.ValidationModel, memory.Thresholds{
		Search:            cfg.Memory.SearchThreshold,
		Conflict:          cfg.Memory.ConflictThreshold,
		ReplaceConfidence: cfg.Memory.ReplaceConfidence,
		ReplaceSimilarity: cfg.Memory.ReplaceSimilarity,
		SearchLimit:       cfg.Memory.SearchLimit,
	}, logger)

	// Vibe card
	cardRepo := vibecard.NewRepository(pool)
	synthesizer := vibecard.NewSynthesizer(questionRepo, cardRepo, aiClient, cfg.OpenAI.ChatModel, logger)

	// Setup completion
	jobQueue := queue.NewQueue(rdb.Client, logger)
	setupRepo := setup.NewRepository(pool)
	tracker := setup.NewTracker(setupRepo, synthesizer, jobQueue, questionRepo, logger)
	setupHandler := setup.NewHandler(tracker)

	cardHandler := vibecard.NewHandler(cardRepo, jobQueue)

	// Chat engine
	promptLoader := prompts.NewLoader()
	validator := chat.NewValidator(aiClient, cfg.OpenAI.ValidationModel, logger)
	orchestrator := chat.NewOrchestrator(orgResolver, questionRepo, tracker, knowledge,
		promptLoader, validator, aiClient, cfg.OpenAI.ChatModel, logger)
	chatHandler := chat.NewHandler(orchestrator, hub)

	// Website scraper
	var scrapeHandler *scraper.Handler
	if cfg.Scraper.Enabled {
		scrapeClient := scraper.NewClient(aiClient, cfg.OpenAI.ValidationModel, cfg.Scraper.MaxContentBytes, logger)
		scrapeHandler = scraper.NewHandler(scrapeClient, knowledge, logger)
	}

	jwtValidate := func(token string) (string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.UserID.String(), nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Chat turn: resolves the org, runs onboarding/business modes
		api.POST("/chat", chatHandler.ProcessChat)

		// Organizations
		api.GET("/organizations", orgHandler.ListMyOrganizations)

		org := api.Group("/organizations/:id")
		org.Use(organizations.RequireAccess(orgRepo))
		{
			org.GET("", orgHandler.GetByID)
			org.GET("/members", orgHandler.ListMembers)
			org.GET("/questions", questionHandler.ListByOrganization)
			org.GET("/setup", setupHandler.GetStatus)
			org.POST("/setup/reset", middleware.RequireRole("admin"), setupHandler.Reset)
			org.GET("/vibe-card", cardHandler.Get)
			org.PATCH("/vibe-card", cardHandler.Update)
			org.POST("/vibe-card/regenerate", cardHandler.Regenerate)
			if scrapeHandler != nil {
				org.POST("/scrape", scrapeHandler.Scrape)
			}
		}
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
