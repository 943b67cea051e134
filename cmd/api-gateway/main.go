package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

// @title Timetable Studio API
// @version 1.0.0
// @description Versioned timetable documents, feasibility validation and readiness dashboards for school scheduling projects.
// @BasePath /api/v1
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	}

	versionBlobs, err := storage.NewLocalStorage(cfg.Versions.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init version storage", "error", err, "dir", cfg.Versions.StorageDir)
	}

	validate := validator.New()

	orgRepo := repository.NewOrganizationRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	versionRepo := repository.NewVersionRepository(db)

	orgSvc := service.NewOrganizationService(orgRepo, validate, logr)
	projectSvc := service.NewProjectService(projectRepo, orgRepo, validate, logr)
	versionSvc := service.NewVersionService(versionRepo, versionBlobs, validate, logr)
	validationSvc := service.NewValidationService(logr)

	orgHandler := handler.NewOrganizationHandler(orgSvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	versionHandler := handler.NewVersionHandler(versionSvc)
	validationHandler := handler.NewValidationHandler(versionSvc, validationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dashboardHandler *handler.DashboardHandler
	if cfg.Dashboard.Enabled {
		dashboardSvc := service.NewDashboardService(versionSvc, cacheSvc, logr, service.DashboardServiceConfig{
			CacheTTL: cfg.Dashboard.CacheTTL,
		})
		dashboardHandler = handler.NewDashboardHandler(dashboardSvc)
	}

	var (
		solverHandler *handler.SolverHandler
		solverQueue   *jobs.Queue
	)
	if cfg.Solver.Enabled {
		solverRepo := repository.NewSolverJobRepository(db)
		solverClient := service.NewSolverClient(cfg.Solver.BaseURL, cfg.Solver.Timeout, logr)
		solverSvc := service.NewSolverService(solverRepo, solverClient, versionSvc, logr, service.SolverServiceConfig{
			PollInterval: cfg.Solver.PollInterval,
		})
		solverQueue = jobs.NewQueue("solver-poll", solverSvc.Poll, jobs.QueueConfig{
			Workers: cfg.Solver.Workers,
			Logger:  logr,
		})
		solverSvc.AttachQueue(solverQueue)
		solverQueue.Start(ctx)
		if err := solverSvc.RecoverUnfinishedJobs(ctx); err != nil {
			logr.Sugar().Warnw("failed to recover unfinished solver jobs", "error", err)
		}
		solverHandler = handler.NewSolverHandler(solverSvc)
	}

	var (
		exportHandler *handler.ExportHandler
		exportQueue   *jobs.Queue
	)
	if cfg.Exports.Enabled {
		exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err, "dir", cfg.Exports.StorageDir)
		}
		exportRepo := repository.NewExportJobRepository(db)
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc := service.NewExportService(versionSvc, exportStorage, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		worker := service.NewExportWorker(exportRepo, exportSvc, 3, logr)
		exportQueue = jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers: 2,
			Logger:  logr,
		})
		exportJobSvc := service.NewExportJobService(exportRepo, exportQueue, exportSvc, validate, logr, service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})
		exportQueue.Start(ctx)
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportJobSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Signed download links authenticate via their token, not a JWT.
	if exportHandler != nil {
		r.GET(cfg.APIPrefix+"/exports/download/:token", exportHandler.Download)
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.JWT.Enabled {
		api.Use(middleware.JWT(cfg.JWT.Secret))
	} else {
		// Auth is not enforced, but tokens clients do send still
		// attribute created_by on versions and export jobs.
		api.Use(middleware.OptionalJWT(cfg.JWT.Secret))
	}

	api.GET("/metrics", metricsHandler.Snapshot)

	orgs := api.Group("/organizations")
	orgs.GET("", orgHandler.List)
	orgs.POST("", orgHandler.Create)
	orgs.GET("/:orgId", orgHandler.Get)
	orgs.PUT("/:orgId", orgHandler.Update)
	orgs.DELETE("/:orgId", orgHandler.Delete)

	projects := orgs.Group("/:orgId/projects")
	projects.GET("", projectHandler.List)
	projects.POST("", projectHandler.Create)
	projects.GET("/:projectId", projectHandler.Get)
	projects.PUT("/:projectId", projectHandler.Update)
	projects.DELETE("/:projectId", projectHandler.Delete)

	if dashboardHandler != nil {
		projects.GET("/:projectId/dashboard", dashboardHandler.Project)
	}

	versions := projects.Group("/:projectId/versions")
	versions.GET("", versionHandler.List)
	versions.POST("", versionHandler.Create)
	versions.GET("/latest", versionHandler.Latest)
	versions.GET("/:versionId", versionHandler.Get)
	versions.DELETE("/:versionId", versionHandler.Delete)

	versions.POST("/:versionId/bands", versionHandler.AddBand)
	versions.POST("/:versionId/bands/:bandId/rename", versionHandler.RenameBand)
	versions.DELETE("/:versionId/bands/:bandId", versionHandler.DeleteBand)
	versions.DELETE("/:versionId/year-groups/:yearGroupId", versionHandler.DeleteYearGroup)
	versions.POST("/:versionId/year-groups/:yearGroupId/duplicate", versionHandler.DuplicateYearGroup)

	versions.GET("/:versionId/validation", validationHandler.Validate)
	versions.GET("/:versionId/validation/issues/:issueId", validationHandler.GetIssue)
	versions.GET("/:versionId/progress", validationHandler.Progress)

	if solverHandler != nil {
		versions.POST("/:versionId/solver/jobs", solverHandler.Submit)
		versions.GET("/:versionId/solver/jobs", solverHandler.List)
		versions.GET("/:versionId/solver/jobs/:jobId", solverHandler.Get)
		versions.POST("/:versionId/solver/jobs/:jobId/cancel", solverHandler.Cancel)
	}

	if exportHandler != nil {
		versions.POST("/:versionId/exports", exportHandler.Create)
		api.GET("/exports/:jobId", exportHandler.Status)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown failed", "error", err)
	}

	if solverQueue != nil {
		solverQueue.Stop()
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
}
