package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nidhogg/echoes/internal/agent"
	"github.com/nidhogg/echoes/internal/api"
	"github.com/nidhogg/echoes/internal/cache"
	"github.com/nidhogg/echoes/internal/config"
	"github.com/nidhogg/echoes/internal/provider"
	"github.com/nidhogg/echoes/internal/ratelimit"
	"github.com/nidhogg/echoes/internal/songdb"
	"github.com/nidhogg/echoes/internal/store"
	"github.com/nidhogg/echoes/internal/tools"
)

func main() {
	_ = godotenv.Load()

	// Load configuration; a missing file is not an error, the defaults work.
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/echoes.json"
	}
	cfg, cfgErr := config.Load(cfgPath)
	if cfgErr != nil {
		cfg = config.Default()
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	logger.Info("Starting Echoes...")
	switch {
	case cfgErr == nil:
		logger.Info("Config loaded", zap.String("path", cfgPath))
	case errors.Is(cfgErr, os.ErrNotExist):
		logger.Info("Config file not found, using defaults", zap.String("path", cfgPath))
	default:
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(cfgErr))
	}
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, agent queries will fail")
	}

	// Song database
	songs, err := songdb.Open(cfg.Database.SongsPath)
	if err != nil {
		logger.Fatal("failed to open songs database", zap.Error(err))
	}

	// Execution store: Postgres when configured, SQLite otherwise
	var executions store.Store
	if cfg.Database.Executions.Driver == "postgres" && cfg.Database.Executions.PostgresDSN != "" {
		pg, pgErr := store.OpenPostgres(cfg.Database.Executions.PostgresDSN,
			cfg.Database.Executions.RetentionDays, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, falling back to SQLite", zap.Error(pgErr))
		} else {
			executions = pg
		}
	}
	if executions == nil {
		sq, sqErr := store.OpenSQLite(cfg.Database.Executions.Path,
			cfg.Database.Executions.RetentionDays, logger)
		if sqErr != nil {
			logger.Fatal("failed to open execution store", zap.Error(sqErr))
		}
		executions = sq
	}

	// Query cache: Redis when configured, in-memory otherwise
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	var queryCache cache.Cache
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisURL != "" {
		rc, rcErr := cache.NewRedis(cfg.Cache.RedisURL, cfg.Cache.MaxSize, ttl, logger)
		if rcErr != nil {
			logger.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(rcErr))
		} else {
			queryCache = rc
		}
	}
	if queryCache == nil {
		queryCache = cache.NewMemory(cfg.Cache.MaxSize, ttl, logger)
	}

	// LLM provider plus the tool set and prompts shared by all executors
	llm := provider.NewOpenAI(provider.Config{
		Endpoint: cfg.OpenAI.Endpoint,
		APIKey:   cfg.OpenAI.APIKey,
		Timeout:  time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
	}, logger)

	registry := agent.NewToolRegistry()
	tools.RegisterAll(registry, songs, logger)
	prompts := agent.NewPromptRegistry()
	logger.Info("Tools registered", zap.Int("count", registry.Len()))

	build := func(model string, temperature float64) (*agent.Executor, error) {
		a, buildErr := agent.New(agent.Config{
			Model:             model,
			Variant:           cfg.Agent.Variant,
			Temperature:       temperature,
			MaxTokens:         cfg.Agent.MaxTokens,
			UseAdaptivePrompt: cfg.Agent.AdaptivePrompt,
			EnableReflection:  cfg.Agent.Reflection,
			Provider:          llm,
			Tools:             registry,
			Prompts:           prompts,
			Logger:            logger,
		})
		if buildErr != nil {
			return nil, buildErr
		}
		return agent.NewExecutor(a, model, logger), nil
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.RequestsPerMinute, logger)
	}

	handler := api.New(cfg, songs, executions, queryCache, limiter, build, logger)

	// Evict expired cache entries in the background
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				queryCache.CleanupExpired(cleanupCtx)
			}
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Echoes listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Echoes...")
	stopCleanup()
	srv.Shutdown(context.Background())
	executions.Close()
	songs.Close()
}

// newLogger builds a development logger at the configured level. Unknown
// level names fall back to zap's default.
func newLogger(level string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}
