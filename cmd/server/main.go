package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matea/trainer/internal/api"
	"github.com/matea/trainer/internal/config"
	"github.com/matea/trainer/internal/db"
	"github.com/matea/trainer/internal/generator"
	"github.com/matea/trainer/internal/logger"
	"github.com/matea/trainer/internal/repository/sqlite"
	"github.com/matea/trainer/internal/services"
	"github.com/matea/trainer/internal/session"
	"github.com/matea/trainer/internal/store"
	"github.com/matea/trainer/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Trainer Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("generator_url=%s", cfg.GeneratorURL)
	log.Debug("generator_timeout_sec=%d", cfg.GeneratorTimeoutSec)
	log.Debug("prefetch_worker_count=%d", cfg.PrefetchWorkerCount)
	log.Debug("prefetch_queue_size=%d", cfg.PrefetchQueueSize)
	log.Debug("cache_size=%d", cfg.CacheSize)
	log.Debug("memorize_sec=%d", cfg.MemorizeSec)
	log.Debug("answer_sec=%d", cfg.AnswerSec)
	log.Debug("item_points=%d", cfg.ItemPoints)
	log.Debug("item_count=%d", cfg.ItemCount)
	log.Debug("locale=%s", cfg.Locale)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	stateRepo := sqlite.NewStateRepository(database.DB)
	sessionRepo := sqlite.NewSessionRepository(database.DB)

	trainingStore, err := store.New(context.Background(), stateRepo, sessionRepo)
	if err != nil {
		log.Error("failed to load training state: %v", err)
		os.Exit(1)
	}

	client := generator.New(
		cfg.GeneratorURL,
		time.Duration(cfg.GeneratorTimeoutSec)*time.Second,
		cfg.Locale,
		cfg.ItemCount,
	)
	cache, err := generator.NewCache(cfg.CacheSize)
	if err != nil {
		log.Error("failed to create challenge cache: %v", err)
		os.Exit(1)
	}

	prefetchPool := worker.NewPool(cfg.PrefetchWorkerCount, cfg.PrefetchQueueSize)

	sessions := session.NewManager(session.Config{
		MemorizeSec: cfg.MemorizeSec,
		AnswerSec:   cfg.AnswerSec,
		ItemPoints:  cfg.ItemPoints,
	}, nil)

	trainingService := services.NewTrainingService(trainingStore, sessionRepo)
	challengeService := services.NewChallengeService(client, cache, prefetchPool, sessions, trainingStore)

	srv := &api.Server{
		TrainingService:  trainingService,
		ChallengeService: challengeService,
	}

	ctx, cancel := context.WithCancel(context.Background())
	prefetchPool.Start(ctx)
	challengeService.Warmup()

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping worker pool")
	cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	prefetchPool.Stop()

	log.Debug("abandoning live sessions")
	sessions.Shutdown()

	log.Info("===========================================")
	log.Info("Trainer Server Stopped")
	log.Info("===========================================")
}
