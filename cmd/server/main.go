package main

import (
	"context"
	"os"
	"os/signal"
	"quizmatch/internal/adapter/api"
	"quizmatch/internal/adapter/catalog"
	"quizmatch/internal/adapter/client"
	"quizmatch/internal/adapter/store"
	"quizmatch/internal/config"
	"quizmatch/internal/domain/entity"
	"quizmatch/internal/domain/repository"
	"quizmatch/internal/logger"
	"quizmatch/internal/usecase"
	"syscall"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".env.dev")
	if err != nil {
		logger.New("info", "console").Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Quiz catalog, loaded once and read-only afterwards
	cat, err := catalog.Load(cfg.QuizConfigDir, cfg.DefaultConfigFile, cfg.DefaultLocale)
	if err != nil {
		log.Fatal("failed to load quiz config", zap.Error(err))
	}
	log.Info("quiz config loaded",
		zap.Strings("locales", cat.Locales()),
		zap.String("default_locale", cat.DefaultLocale()))

	opts := []usecase.RecommenderOption{
		usecase.WithDefaultModel(cfg.Gemini.Model),
		usecase.WithGenerationParams(entity.GenerationParams{
			Temperature:     cfg.Gemini.Temperature,
			TopK:            cfg.Gemini.TopK,
			TopP:            cfg.Gemini.TopP,
			MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		}),
	}

	// Redis for per-client token budgets
	if cfg.Redis.Addr != "" && cfg.Redis.TokenLimit > 0 {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		opts = append(opts, usecase.WithTokenLimiter(store.NewRedisLimiter(rdb, cfg.Redis.TokenLimit, cfg.Redis.UsageWindow)))
	}

	// Qdrant for the recommendation cache
	if cfg.Qdrant.Host != "" {
		qClient, err := qdrant.NewClient(&qdrant.Config{
			Host: cfg.Qdrant.Host,
			Port: cfg.Qdrant.Port,
		})
		if err != nil {
			log.Fatal("failed to connect to qdrant", zap.Error(err))
		}
		cache := store.NewQdrantStore(qClient, cfg.Qdrant.Collection, cfg.Qdrant.Threshold, log)
		initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = cache.InitCollection(initCtx, usecase.VectorDimensions)
		cancel()
		if err != nil {
			log.Fatal("failed to init qdrant collection", zap.Error(err))
		}
		opts = append(opts, usecase.WithCache(cache))
	}

	var provider repository.AIProvider
	breakerState := func() string { return "disabled" }
	if cfg.Gemini.Configured() {
		gemini, err := newGemini(ctx, cfg.Gemini)
		if err != nil {
			log.Fatal("failed to init genai client", zap.Error(err))
		}
		resilient := usecase.NewResilientProvider(gemini, cfg.Gemini.Timeout, usecase.BreakerSettings{
			FailureThreshold: cfg.Breaker.Failures,
			Cooldown:         cfg.Breaker.Cooldown,
		}, log)
		provider = resilient
		breakerState = resilient.State
	} else {
		log.Warn("no Gemini credential configured, serving fallback recommendations only")
	}

	recommender := usecase.NewRecommender(provider, log, opts...)

	// Initialize API Layer (Delivery Layer)
	app := api.NewApp("Quizmatch Recommendation API")
	handler := api.NewQuizHandler(recommender, cat, log)
	api.SetupRouter(app, handler, api.HealthInfo{
		Version: cfg.AppVersion,
		Env:     cfg.Env,
		Breaker: breakerState,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("quizmatch running", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newGemini(ctx context.Context, cfg config.GeminiConfig) (*client.GeminiClient, error) {
	if cfg.Backend == "vertex" {
		return client.NewVertexGeminiClient(ctx, cfg.Project, cfg.Location, cfg.Model)
	}
	return client.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
}
