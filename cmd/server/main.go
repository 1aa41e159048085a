package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daonlabs/hagwon-backend/internal/config"
	"github.com/daonlabs/hagwon-backend/internal/database"
	"github.com/daonlabs/hagwon-backend/internal/handler"
	"github.com/daonlabs/hagwon-backend/internal/logger"
	"github.com/daonlabs/hagwon-backend/internal/repository"
	"github.com/daonlabs/hagwon-backend/internal/router"
	"github.com/daonlabs/hagwon-backend/internal/service"
	"github.com/daonlabs/hagwon-backend/internal/validator"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	log.Info().Str("port", cfg.ServerPort).Msg("Starting hagwon backend")

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

	// Repositories
	studentRepo := repository.NewStudentRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)

	// Services
	feedService := service.NewFeedService(rdb, log)
	authService := service.NewAuthService(cfg)
	lessonService := service.NewLessonService(lessonRepo, studentRepo, feedService, log)
	studentService := service.NewStudentService(studentRepo, lessonRepo, feedService, rdb, log)

	// Handlers
	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(authService, log),
		Student: handler.NewStudentHandler(studentService, lessonService, log),
		Lesson:  handler.NewLessonHandler(lessonService, log),
		Feed:    handler.NewFeedHandler(cfg, rdb, log),
	}

	engine := router.Setup(cfg, authService, handlers, log)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}

	log.Info().Msg("Server stopped")
}
