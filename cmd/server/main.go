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

	"go.uber.org/zap"

	"videoquiz-backend/internal/config"
	"videoquiz-backend/internal/database"
	"videoquiz-backend/internal/handlers"
	"videoquiz-backend/internal/logger"
	"videoquiz-backend/internal/middleware"
	"videoquiz-backend/internal/pipeline"
	"videoquiz-backend/internal/repository"
	"videoquiz-backend/internal/router"
	"videoquiz-backend/internal/services"
)

func main() {
	// ──── Step 1: Load Configuration ────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	defer log.Sync()
	log.Info("starting videoquiz backend", zap.String("env", cfg.Env))

	ctx := context.Background()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiTranscriptionModel, cfg.GeminiConcurrentReqs, log)
	if err != nil {
		log.Fatal("gemini client initialization failed", zap.Error(err))
	}
	defer geminiService.Close()
	log.Info("gemini client initialized", zap.String("transcription_model", cfg.GeminiTranscriptionModel))

	// ──── Step 6: Assemble the Quiz Pipeline ────
	var extractor pipeline.AudioExtractor
	switch cfg.AudioBackend {
	case "native":
		extractor = services.NewNativeAudioExtractor(log)
	default:
		extractor = services.NewYtDlpExtractor(cfg.YtDlpPath, log)
	}

	pcfg := cfg.Pipeline()
	generator := pipeline.NewGenerator(
		pipeline.NewAcquirer(extractor, geminiService, pcfg, log),
		pipeline.NewPromptBuilder(pcfg),
		pipeline.NewInvoker(geminiService, pipeline.NewModelSelector(pcfg, geminiService, log), pcfg, log),
		log,
	)
	log.Info("quiz pipeline ready", zap.String("audio_backend", cfg.AudioBackend))

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.AccessCookieName)
	authService := services.NewAuthService(userRepo, redisClient, jwtAuth, log)
	quizService := services.NewQuizService(generator, quizRepo, log)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService, handlers.CookieSettings{
		AccessName:  cfg.AccessCookieName,
		RefreshName: cfg.RefreshCookieName,
		Secure:      cfg.IsProduction(),
		SameSite:    cfg.CookieSameSite,
	}, log)
	quizHandler := handlers.NewQuizHandler(quizService, log)

	var authLimiter *middleware.RateLimiter
	if cfg.AuthRateLimit > 0 {
		authLimiter = middleware.NewRateLimiter(redisClient, "auth", cfg.AuthRateLimit, cfg.AuthRateLimitSpan, log)
	}

	// ──── Step 7: Start HTTP Server ────
	r := router.New(jwtAuth, authLimiter, authHandler, quizHandler, cfg.CORSAllowedOrigins, log)

	// Quiz creation runs model listing, extraction, transcription and
	// generation in-request, each bounded by CallTimeout.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.RequestWriteTimeout(cfg.CallTimeout),
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	log.Info("videoquiz backend ready", zap.String("addr", "http://localhost:"+cfg.Port), zap.String("api", "http://localhost:"+cfg.Port+"/api"))

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
}
