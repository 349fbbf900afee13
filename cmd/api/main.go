package main

import (
	"context"
	"errors"
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
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-score-portal/api/swagger"
	"github.com/noah-isme/sma-score-portal/internal/handler"
	"github.com/noah-isme/sma-score-portal/internal/middleware"
	"github.com/noah-isme/sma-score-portal/internal/repository"
	"github.com/noah-isme/sma-score-portal/internal/router"
	"github.com/noah-isme/sma-score-portal/internal/service"
	"github.com/noah-isme/sma-score-portal/pkg/cache"
	"github.com/noah-isme/sma-score-portal/pkg/config"
	"github.com/noah-isme/sma-score-portal/pkg/database"
	"github.com/noah-isme/sma-score-portal/pkg/export"
	"github.com/noah-isme/sma-score-portal/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-score-portal/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-score-portal/pkg/middleware/requestid"
	"github.com/noah-isme/sma-score-portal/pkg/storage"
)

// @title SMA Score Portal API
// @version 1.0.0
// @description Entrance exam score administration and student result lookup
// @BasePath /api/v1
// @schemes http https

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Fatal("failed to ensure schema", zap.Error(err))
		}
	}

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	metricsSvc := service.NewMetricsService()

	cacheEnabled := cfg.Stats.CacheEnabled
	var cacheRepo service.StatisticsCache
	if cacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, statistics cache disabled", zap.Error(err))
			cacheEnabled = false
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewStatisticsCacheRepository(redisClient, logr)
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cacheEnabled)

	validate := validator.New()

	documentRepo := repository.NewDocumentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	planSvc := service.NewPlanService(documentRepo, validate, logr)
	settingsSvc := service.NewSettingsService(documentRepo, validate, logr)
	statisticsSvc := service.NewStatisticsService(planSvc, studentRepo, statisticsRepo, cacheSvc, metricsSvc, logr)

	refresher := service.NewStatsRefresher(statisticsSvc, service.StatsRefresherConfig{
		MaxRetries: cfg.Stats.QueueRetries,
		RetryDelay: cfg.Stats.RetryDelay,
	}, logr)
	refresher.Start(ctx)
	defer refresher.Stop()

	var importArchive interface {
		Save(name string, data []byte) (string, error)
	}
	if cfg.Import.ArchiveDir != "" {
		archive, err := storage.NewLocalStorage(cfg.Import.ArchiveDir)
		if err != nil {
			logr.Fatal("failed to prepare upload archive", zap.Error(err))
		}
		importArchive = archive
	}

	importSvc := service.NewImportService(planSvc, studentRepo, importArchive, refresher, metricsSvc, logr, service.ImportConfig{MaxRows: cfg.Import.MaxRows})
	studentSvc := service.NewStudentService(studentRepo, planSvc, refresher, validate, logr)
	resultSvc := service.NewResultService(studentRepo, planSvc, settingsSvc, statisticsSvc, validate, logr)
	exportSvc := service.NewExportService(studentRepo, planSvc, statisticsSvc,
		export.NewCSVExporter(cfg.Export.CSVWithBOM), export.NewPDFExporter(cfg.Export.PDFFontPath), logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	router.Register(r, cfg.APIPrefix, router.Dependencies{
		PlanHandler:       handler.NewPlanHandler(planSvc, refresher),
		SettingsHandler:   handler.NewSettingsHandler(settingsSvc),
		StudentHandler:    handler.NewStudentHandler(studentSvc, exportSvc),
		ImportHandler:     handler.NewImportHandler(importSvc, exportSvc, cfg.Import.MaxFileSizeBytes),
		StatisticsHandler: handler.NewStatisticsHandler(statisticsSvc, exportSvc),
		ResultHandler:     handler.NewResultHandler(resultSvc),
		MetricsHandler:    handler.NewMetricsHandler(metricsSvc, checks),
		JWTMiddleware:     middleware.JWT(authSvc),
		Logger:            logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
