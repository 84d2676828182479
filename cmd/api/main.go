package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gravadigital/movienight-api/internal/bus"
	"github.com/gravadigital/movienight-api/internal/config"
	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/engine"
	"github.com/gravadigital/movienight-api/internal/handlers"
	"github.com/gravadigital/movienight-api/internal/logger"
	"github.com/gravadigital/movienight-api/internal/metrics"
	"github.com/gravadigital/movienight-api/internal/notify"
	"github.com/gravadigital/movienight-api/internal/server"
	"github.com/gravadigital/movienight-api/internal/storage/posters"
	"github.com/gravadigital/movienight-api/internal/storage/postgres"
)

func main() {
	cfg := config.Load()
	logger.Initialize(cfg.LogLevel)
	log := logger.Get()

	metrics.Register()

	loc := time.Local
	if tz := os.Getenv("TZ"); tz != "" {
		if parsed, err := time.LoadLocation(tz); err == nil {
			loc = parsed
		} else {
			log.Warn("Invalid TZ, falling back to system local time", "tz", tz, "error", err)
		}
	}

	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer postgres.Close()

	if err := postgres.AutoMigrate(db); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	changeBus, err := bus.NewRedisBus(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to the change bus", "error", err)
	}
	defer changeBus.Close()

	var sink notify.Sink = notify.NopSink{}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Brokers[0] != "" {
		kafkaSink := notify.NewKafkaSink(cfg.Kafka)
		defer kafkaSink.Close()
		sink = kafkaSink
	}

	var posterMirror handlers.PosterMirror
	if cfg.Posters.Endpoint != "" {
		mirror, err := posters.NewMirror(ctx, cfg.Posters)
		if err != nil {
			log.Warn("Poster mirroring disabled", "error", err)
		} else {
			posterMirror = mirror
		}
	}

	cycleRepo := postgres.NewPostgresCycleRepository(db, cfg.Cycle.DefaultFinishTime)
	movieRepo := postgres.NewPostgresMovieRepository(db)
	settingsRepo := postgres.NewPostgresSettingsRepository(db, cycle.AppSettings{
		DefaultFinishTime:      cfg.Cycle.DefaultFinishTime,
		UnderdogBoostThreshold: cfg.Cycle.UnderdogBoostThreshold,
		BreakIntervalMinutes:   cfg.Cycle.BreakIntervalMinutes,
		BreakDurationMinutes:   cfg.Cycle.BreakDurationMinutes,
		MaxNominationsPerUser:  cfg.Cycle.MaxNominationsPerUser,
	})

	driver := engine.NewDriver(cycleRepo, movieRepo, settingsRepo, changeBus, sink, cfg.Cycle, loc)
	go func() {
		if err := driver.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("Evaluation driver exited", "error", err)
		}
	}()

	srv := server.New(cfg, db, changeBus, posterMirror, loc)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("HTTP server exited", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Failed to shut down cleanly", "error", err)
	}
}
