package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iexsys/iexsys-backend/internal/config"
	"github.com/iexsys/iexsys-backend/internal/database"
	"github.com/iexsys/iexsys-backend/internal/handler"
	"github.com/iexsys/iexsys-backend/internal/logger"
	"github.com/iexsys/iexsys-backend/internal/repository"
	"github.com/iexsys/iexsys-backend/internal/router"
	"github.com/iexsys/iexsys-backend/internal/service"
	"github.com/iexsys/iexsys-backend/internal/validator"
	"github.com/iexsys/iexsys-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting IEXSYS Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	paperRepo := repository.NewPaperRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)

	// Services.
	authService := service.NewAuthService(userRepo, cfg, rdb, log)
	questionService := service.NewQuestionService(questionRepo, tagRepo, log)
	paperService := service.NewPaperService(paperRepo, questionRepo, service.NewRandSampler(), log)
	roomService := service.NewExamRoomService(sessionRepo, paperRepo, questionRepo, rdb, log)

	// Handlers.
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Question: handler.NewQuestionHandler(questionService),
		Paper:    handler.NewPaperHandler(paperService),
		Room:     handler.NewExamRoomHandler(roomService),
		WS:       handler.NewWSHandler(rdb, roomService, log, cfg.AllowedOrigins),
	}

	// Background workers.
	workerCtx, workerCancel := context.WithCancel(context.Background())

	flushWorker := worker.NewAnswerFlushWorker(sessionRepo, rdb, log)
	go flushWorker.Start(workerCtx)

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
