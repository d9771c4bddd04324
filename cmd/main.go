package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/campuseye/attendance-engine/internal/config"
	"github.com/campuseye/attendance-engine/internal/handler"
	"github.com/campuseye/attendance-engine/internal/health"
	"github.com/campuseye/attendance-engine/internal/infra/auditrecorder"
	"github.com/campuseye/attendance-engine/internal/infra/configstore"
	"github.com/campuseye/attendance-engine/internal/infra/eventstore"
	"github.com/campuseye/attendance-engine/internal/observability/logging"
	"github.com/campuseye/attendance-engine/internal/observability/metrics"
	"github.com/campuseye/attendance-engine/internal/observability/middleware"
	"github.com/campuseye/attendance-engine/internal/service/calendar"
	"github.com/campuseye/attendance-engine/internal/service/calendarcache"
	"github.com/campuseye/attendance-engine/internal/service/course"
	"github.com/campuseye/attendance-engine/internal/service/dedup"
	"github.com/campuseye/attendance-engine/internal/service/reclassify"
	"github.com/campuseye/attendance-engine/internal/service/session"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	obs, err := initObservability(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	engineMetrics, err := metrics.NewEngineMetrics()
	if err != nil {
		slog.Error("failed to initialize engine metrics", slog.String("error", err.Error()))
		return 1
	}

	// Audit recorder (InfluxDB for local, BigQuery for gcloud)
	auditRecorder, err := auditrecorder.NewRecorder(ctx, auditrecorder.LoadConfig())
	if err != nil {
		slog.Error("failed to initialize audit recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := auditRecorder.Close(); err != nil {
			slog.Warn("failed to close audit recorder", slog.String("error", err.Error()))
		}
	}()

	taskQueue, cleanup, err := initTaskQueue(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize task queue", slog.String("error", err.Error()))
		return 1
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				slog.Error("task queue cleanup error", slog.String("error", err.Error()))
			}
		}()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}()

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		slog.Error("failed to connect database",
			slog.String("event", "database.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Warn("failed to close database", slog.String("error", err.Error()))
			}
		}
	}()

	slog.Info("database connected")

	eventStore, err := eventstore.New(db, cfg.Dedup.BatchLimit)
	if err != nil {
		slog.Error("failed to initialize event store", slog.String("error", err.Error()))
		return 1
	}

	remoteConfigStore, err := configstore.NewGormStore(db)
	if err != nil {
		slog.Error("failed to initialize config store", slog.String("error", err.Error()))
		return 1
	}
	localConfigCache := configstore.NewRedisCache(redisClient)

	calendarCache := calendarcache.New(
		remoteConfigStore,
		localConfigCache,
		cfg.Calendar.CacheTTL,
		engineMetrics,
		obs.Logger(),
	)

	classifier := session.NewClassifier()
	resolver := calendar.NewResolver()
	assigner := course.NewAssigner(classifier, resolver)

	dedupService := dedup.NewService(eventStore, classifier, engineMetrics, cfg.Dedup.Location)

	var scheduler *dedup.Scheduler
	if taskQueue != nil {
		scheduler = dedup.NewScheduler(taskQueue, classifier, cfg.Dedup.Location, cfg.Dedup.ScheduleGrace)
	}

	reclassifyService := reclassify.NewService(
		eventStore,
		calendarCache,
		assigner,
		auditRecorder,
		engineMetrics,
		cfg.Dedup.Location,
	)

	dedupHandler := handler.NewDedupHandler(dedupService, scheduler)
	reclassifyHandler := handler.NewReclassifyHandler(reclassifyService)
	calendarHandler := handler.NewCalendarHandler(calendarCache)

	// Setup router with observability middleware
	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		Logger:      obs.Logger(),
		HTTPMetrics: httpMetrics,
		Module:      logging.Module("attendance-engine"),
		SkipPaths:   []string{"/health", "/health/live", "/health/ready"},
	}))
	r.Use(middleware.PanicRecoveryGin(obs.Logger()))

	// Health check endpoints
	healthChecker := health.NewChecker(redisClient, db, Version)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	// API routes
	v1 := r.Group("/api/v1")
	{
		v1.POST("/dedupe", dedupHandler.HandleDedupe)
		v1.POST("/dedupe/noon-purge", dedupHandler.HandleNoonPurge)
		v1.POST("/dedupe/schedule", dedupHandler.HandleSchedule)
		v1.POST("/reclassify", reclassifyHandler.HandleReclassify)
		v1.GET("/calendar", calendarHandler.HandleGetCalendar)
		v1.PUT("/calendar/:semester", calendarHandler.HandlePutSemester)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.Int("dedup_batch_limit", cfg.Dedup.BatchLimit),
			slog.Duration("calendar_cache_ttl", cfg.Calendar.CacheTTL),
			slog.String("timezone", cfg.Dedup.Location.String()),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		if err := auditRecorder.Flush(shutdownCtx); err != nil {
			slog.Warn("failed to flush audit recorder", slog.String("error", err.Error()))
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}
