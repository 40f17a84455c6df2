package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/middleware"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/migrations"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/routes"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/seeds"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/services"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Env, cfg.LogLevel)

	logger.Info().Str("environment", cfg.Env).Msg("Starting Practice Arena backend...")

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Storage
	if err := database.Connect(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.AutoMigrate(database.DB); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate tables")
	}
	if err := migrations.NewMigrator(database.DB).Run(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	if err := seeds.SeedBadges(); err != nil {
		logger.Error().Err(err).Msg("Failed to seed badges")
	}

	database.InitRedis()
	defer database.CloseRedis()

	// 2. Session store, cooldown and judge cache: Redis when reachable
	var (
		store    session.Store
		cooldown middleware.Cooldown
		cache    services.ResultCache
	)
	if database.Redis != nil {
		store = session.NewRedisStore(database.Redis, cfg.SessionTTL)
		cooldown = middleware.NewRedisCooldown(database.Redis, cfg.RunCooldown)
		cache = services.NewRedisResultCache(database.Redis)
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
		cooldown = middleware.NewMemoryCooldown(cfg.RunCooldown)
		cache = services.NewMemoryResultCache()
	}

	// 3. Upstreams
	judge := services.NewJudge0Client(cfg.JudgeURL, cfg.JudgeAuthToken, cache, cfg.JudgeCacheTTL)
	gemini := services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEndpoint)
	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY not set; question generation will fail")
	}

	if cfg.KafkaBrokers != "" {
		publisher := services.NewKafkaActivityPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		services.Publisher = publisher
		defer publisher.Close()
		logger.Info().Str("topic", cfg.KafkaTopic).Msg("Publishing activity to Kafka")
	}

	// 4. Router
	r := routes.NewRouter(routes.Deps{
		Config:    cfg,
		Store:     store,
		Cooldown:  cooldown,
		Questions: services.NewQuestionGenerator(gemini),
		Assistant: services.NewAssistant(gemini),
		Runner:    services.NewTestRunner(judge, cfg.JudgeRunTimeout, cfg.JudgeSubmitTimeout),
	})

	// 5. Start Server with graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(services.MaxTestCases)*cfg.JudgeSubmitTimeout + 10*time.Second, // one judge call per testcase
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
