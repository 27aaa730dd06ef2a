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
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/classroom-sync/api/swagger"
	"github.com/noah-isme/classroom-sync/internal/handler"
	internalmiddleware "github.com/noah-isme/classroom-sync/internal/middleware"
	"github.com/noah-isme/classroom-sync/internal/models"
	"github.com/noah-isme/classroom-sync/internal/persistence"
	"github.com/noah-isme/classroom-sync/internal/service"
	"github.com/noah-isme/classroom-sync/pkg/config"
	"github.com/noah-isme/classroom-sync/pkg/idgen"
	"github.com/noah-isme/classroom-sync/pkg/logger"
	corsmiddleware "github.com/noah-isme/classroom-sync/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classroom-sync/pkg/middleware/requestid"
	"github.com/noah-isme/classroom-sync/pkg/storage"
)

// @title Classroom Sync API
// @version 1.0.0
// @description Classroom entity store with cross-context device synchronization
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	baseLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer baseLogger.Sync() //nolint:errcheck

	origin := uuid.NewString()
	logr := logger.ForContext(baseLogger, origin)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService(origin)
	}

	backend, err := openDeviceBackend(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open device storage", zap.String("backend", cfg.Storage.DeviceBackend), zap.Error(err))
	}
	defer backend.close()

	adapterOpts := persistence.Options{
		Origin:     origin,
		Device:     backend.kv,
		Notifier:   backend.notifier,
		QuotaBytes: cfg.Storage.QuotaBytes,
		Logger:     logr,
	}
	if metricsSvc != nil {
		adapterOpts.Metrics = metricsSvc
	}
	adapter := persistence.NewAdapter(adapterOpts)
	defer adapter.Close()

	files, err := storage.NewLocalStorage(cfg.Materials.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare material storage", zap.Error(err))
	}
	registry := storage.NewContentRegistry(files, storage.NewRefSigner(cfg.Materials.SignedURLSecret, cfg.Materials.SignedURLTTL), origin)

	validate := validator.New()
	ids := idgen.New(nil, 0)

	var syncObs interface {
		RecordReconciliation(outcome string, dropped int)
	}
	var storeObs interface{ RecordStoreOperation(op, outcome string) }
	if metricsSvc != nil {
		syncObs, storeObs = metricsSvc, metricsSvc
	}

	bridge := service.NewSyncService(adapter, cfg.Sync, logr, syncObs)
	store := service.NewClassroomStore(bridge, registry, ids, validate, logr, storeObs)
	if err := bridge.Start(ctx, store); err != nil {
		logr.Fatal("failed to start sync", zap.Error(err))
	}
	defer func() {
		bridge.Stop()
		if err := store.Close(); err != nil {
			logr.Warn("failed to release material content", zap.Error(err))
		}
	}()

	tickets := service.NewTicketService(ids, validate, logr)
	exports := service.NewExportService(store, tickets, logr, nil, nil)

	var backup interface {
		Save(ctx context.Context, entries []models.LeaderboardEntry) error
		List(ctx context.Context) ([]models.LeaderboardEntry, error)
	}
	if backend.backup != nil {
		backup = backend.backup
	}
	leaderboard := service.NewLeaderboardService(backend.board, backup, cfg.Leaderboard.Size, validate, logr)
	if n, err := leaderboard.Restore(ctx); err != nil {
		logr.Warn("leaderboard restore failed", zap.Error(err))
	} else if n > 0 {
		logr.Info("leaderboard restored from backup", zap.Int("entries", n))
	}
	leaderboard.StartBackups(ctx, cfg.Leaderboard.BackupInterval)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routes{
		classrooms:  handler.NewClassroomHandler(store),
		enrollments: handler.NewEnrollmentHandler(store),
		threads:     handler.NewThreadHandler(store),
		challenges:  handler.NewChallengeHandler(tickets, exports),
		students:    handler.NewStudentHandler(store, exports),
		leaderboard: handler.NewLeaderboardHandler(leaderboard),
		metrics:     metricsHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "device_backend", cfg.Storage.DeviceBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown", "error", err)
	}
	if _, err := leaderboard.Backup(shutdownCtx); err != nil {
		logr.Warn("final leaderboard backup failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type routes struct {
	classrooms  *handler.ClassroomHandler
	enrollments *handler.EnrollmentHandler
	threads     *handler.ThreadHandler
	challenges  *handler.ChallengeHandler
	students    *handler.StudentHandler
	leaderboard *handler.LeaderboardHandler
	metrics     *handler.MetricsHandler
}

func registerRoutes(api *gin.RouterGroup, h routes) {
	api.GET("/classrooms", h.classrooms.List)
	api.POST("/classrooms", h.classrooms.Create)
	api.GET("/classrooms/:id", h.classrooms.Get)
	api.PATCH("/classrooms/:id", h.classrooms.Update)
	api.DELETE("/classrooms/:id", h.classrooms.Delete)
	api.POST("/classrooms/:id/materials", h.classrooms.UploadMaterial)
	api.POST("/classrooms/:id/tasks", h.classrooms.AssignTask)
	api.POST("/classrooms/:id/messages", h.classrooms.PostMessage)
	api.GET("/materials/:token", h.classrooms.DownloadMaterial)

	api.GET("/enrollments", h.enrollments.List)
	api.POST("/enrollments", h.enrollments.Join)

	api.GET("/threads", h.threads.List)
	api.POST("/threads", h.threads.Create)
	api.POST("/threads/:id/replies", h.threads.Reply)

	api.GET("/challenges", h.challenges.List)
	api.POST("/challenges/:id/tickets", h.challenges.Apply)
	api.GET("/tickets/:id/pdf", h.challenges.TicketPDF)

	api.GET("/students", h.students.List)
	api.POST("/students", h.students.Create)
	api.GET("/students/export", h.students.Export)

	api.GET("/leaderboard", h.leaderboard.List)
	api.POST("/leaderboard/scores", h.leaderboard.AddScore)
	api.POST("/leaderboard/backup", h.leaderboard.Backup)

	api.GET("/status", h.metrics.Status)
}
