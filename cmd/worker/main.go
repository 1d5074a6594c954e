// Package main runs the background worker: agent-link creation and vibe
// card regeneration jobs pulled from the Redis queue.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chayo-app/backend/config"
	"github.com/chayo-app/backend/internal/agentlink"
	"github.com/chayo-app/backend/internal/organizations"
	"github.com/chayo-app/backend/internal/questions"
	"github.com/chayo-app/backend/internal/vibecard"
	"github.com/chayo-app/backend/internal/worker"
	"github.com/chayo-app/backend/pkg/ai"
	"github.com/chayo-app/backend/pkg/database"
	"github.com/chayo-app/backend/pkg/queue"
	"github.com/chayo-app/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	aiClient := ai.NewClient(ai.ClientConfig{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		DefaultModel:   cfg.OpenAI.ChatModel,
		EmbeddingModel: cfg.OpenAI.EmbeddingModel,
	}, logger)

	orgRepo := organizations.NewRepository(pool)
	questionRepo := questions.NewRepository(pool)
	cardRepo := vibecard.NewRepository(pool)
	synthesizer := vibecard.NewSynthesizer(questionRepo, cardRepo, aiClient, cfg.OpenAI.ChatModel, logger)
	linkClient := agentlink.NewClient(cfg.AgentHub.BaseURL, cfg.AgentHub.MinAnsweredFields, questionRepo, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewProcessor(orgRepo, linkClient, synthesizer, jobQueue, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	logger.Info("worker started")
	processor.Run(ctx)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
