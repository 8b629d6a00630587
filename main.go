package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatrelay/server/internal/chat"
	"github.com/chatrelay/server/internal/chat/model"
	"github.com/chatrelay/server/internal/chat/repo"
	"github.com/chatrelay/server/internal/core"
	"github.com/chatrelay/server/internal/llm"
	"github.com/chatrelay/server/internal/server"
	logx "github.com/chatrelay/server/pkg/logger"
	pkgredis "github.com/chatrelay/server/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig defines all configurable parameters for the service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Service configs
	Chat         model.ChatModelConfig
	Conversation model.ConversationConfig
	Server       server.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	defer rdb.Close()

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", envCfg.Conversation.TTL).Msg("Invalid CONVERSATION_TTL")
	}

	invoker, err := llm.NewGeminiInvoker(ctx, llm.GeminiConfig{
		APIKey:  envCfg.APIKey,
		BaseURL: envCfg.BaseURL,
		Chat:    envCfg.Chat,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise model client")
	}

	sessions := repo.NewRedisSessionRepository(rdb, ttl)
	svc := chat.NewService(sessions, invoker)

	srv := server.New(envCfg.Server, svc)
	if err := srv.Start(ctx); err != nil {
		logx.Fatal().Err(err).Msg("HTTP server failed")
	}
}
