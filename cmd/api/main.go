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

	"github.com/seatemp/sea-temperature/docs"
	"github.com/seatemp/sea-temperature/internal/cache"
	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/copernicus"
	"github.com/seatemp/sea-temperature/internal/database"
	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/seatemp/sea-temperature/internal/http/handler"
	"github.com/seatemp/sea-temperature/internal/http/middleware"
	"github.com/seatemp/sea-temperature/internal/http/router"
	"github.com/seatemp/sea-temperature/internal/jobs"
	"github.com/seatemp/sea-temperature/internal/logger"
	"github.com/seatemp/sea-temperature/internal/repository"
	"github.com/seatemp/sea-temperature/internal/service"
	"github.com/seatemp/sea-temperature/internal/storage"
	"github.com/seatemp/sea-temperature/web"
	"go.uber.org/zap"
)

// @title Sea Temperature API
// @version 1.0
// @description Sea surface temperature around a point, served from a tiled local cache of the Copernicus daily analysis.

// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Admin API key

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" || basicCfg.App.Environment == "local" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Full configuration with secrets (Key Vault in staging/production)
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	upstream := copernicus.NewClient(&cfg.Copernicus, log)
	if err := upstream.CheckCredentials(); err != nil {
		return fmt.Errorf("set COPERNICUSMARINE_USERNAME and COPERNICUSMARINE_PASSWORD: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db, cfg.Database.Driver, log); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	archive, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Tile archive initialized", zap.String("mode", cfg.Storage.Mode))

	pointCache, err := cache.New(ctx, &cfg.Cache, log)
	if err != nil {
		// the cache only saves recomputation, so run without it
		log.Warn("Point cache unavailable, continuing without it", zap.Error(err))
		pointCache = cache.Nop{}
	}
	defer func() { _ = pointCache.Close() }()

	tileRepo := repository.NewTileRepository(db)

	sstService := service.NewSSTService(tileRepo, upstream, &cfg.SST, log)
	if archive != nil {
		sstService.SetArchive(archive)
	}
	sstService.SetPointCache(pointCache)

	preloadRegion := domain.Region{
		MinLat: cfg.Preload.MinLat,
		MaxLat: cfg.Preload.MaxLat,
		MinLon: cfg.Preload.MinLon,
		MaxLon: cfg.Preload.MaxLon,
	}

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	pointHandler := handler.NewPointHandler(sstService, &cfg.SST, log)
	adminHandler := handler.NewAdminHandler(sstService, preloadRegion, cfg.Refresh.TimeoutDuration(), log)
	pageHandler, err := handler.NewPageHandler(web.FS, cfg.App.Name, &cfg.SST, log)
	if err != nil {
		return fmt.Errorf("failed to load page templates: %w", err)
	}

	rt := router.NewRouter(cfg, log, db, web.FS, rateLimiter, pointHandler, adminHandler, pageHandler)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Refresh.Enabled || cfg.Retention.Days > 0 {
		scheduler = jobs.NewScheduler(log)

		if cfg.Refresh.Enabled {
			if err := jobs.RegisterRefreshJob(scheduler, sstService, log, cfg.Refresh.Cron,
				cfg.Refresh.TimeoutDuration(), cfg.Refresh.OnStartup); err != nil {
				return fmt.Errorf("failed to register refresh job: %w", err)
			}
		} else {
			log.Info("Daily refresh disabled, run sstctl refresh from an external scheduler")
		}

		if err := jobs.RegisterRetentionJob(scheduler, sstService, log, cfg.Retention.Cron, cfg.Retention.Days); err != nil {
			return fmt.Errorf("failed to register retention job: %w", err)
		}

		scheduler.Start()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		log.Info("Server stopped gracefully")
	}

	return nil
}
