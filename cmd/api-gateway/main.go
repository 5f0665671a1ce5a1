package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable/api/swagger"
	"github.com/noah-isme/sma-timetable/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/cache"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/database"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
	"github.com/noah-isme/sma-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Weekly timetable auto-placement service
// @BasePath /api/v1
// @schemes http

const metricsPath = "/metrics"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	activeDays, err := parseActiveDays(cfg.Scheduler.ActiveDays)
	if err != nil {
		logr.Fatal("invalid scheduler configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, "timetable:", logr)
	defer cacheRepo.Close() //nolint:errcheck
	runStore := service.NewRunStore(cacheRepo, metricsSvc, cfg.Scheduler.RunCacheTTL, logr, redisClient != nil)

	generator := service.NewTimetableGeneratorService(
		service.TimetableSources{
			Periods:      repository.NewPeriodRepository(db),
			Rooms:        repository.NewRoomRepository(db),
			Requirements: repository.NewLessonRequirementRepository(db),
			Availability: repository.NewAvailabilityRepository(db),
			Roster:       repository.NewRosterRepository(db),
		},
		repository.NewTimetableRepository(db),
		scheduler.New(logr),
		runStore,
		db,
		metricsSvc,
		validator.New(),
		logr,
		service.TimetableGeneratorConfig{ActiveDays: activeDays, RunTimeout: cfg.Scheduler.RunTimeout},
	)

	worker := service.NewTimetableWorker(generator, runStore, cfg.Scheduler.MaxRetries, logr)
	queue := jobs.NewQueue("timetable", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Scheduler.Workers,
		BufferSize: cfg.Scheduler.QueueBuffer,
		MaxRetries: cfg.Scheduler.MaxRetries,
		JobTimeout: cfg.Scheduler.RunTimeout,
		Logger:     logr,
	})
	generator.AttachQueue(queue)
	if cfg.Scheduler.Enabled {
		queue.Start(ctx)
		defer queue.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, metricsPath, "/health"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, metricsPath))

	deps := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		deps["redis"] = cache.Pinger{Client: redisClient}
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, deps)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET(metricsPath, metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	if cfg.Scheduler.Enabled {
		handler.NewTimetableHandler(generator).Register(api)
	} else {
		logr.Warn("timetable scheduler disabled; generation routes not mounted")
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func parseActiveDays(raw []string) ([]models.Day, error) {
	days := make([]models.Day, 0, len(raw))
	for _, name := range raw {
		day, ok := models.ParseDay(name)
		if !ok {
			return nil, fmt.Errorf("unknown day %q in SCHEDULER_ACTIVE_DAYS", name)
		}
		days = append(days, day)
	}
	return scheduler.ActiveDays(days), nil
}
