package router

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/database"
	"github.com/seatemp/sea-temperature/internal/http/handler"
	"github.com/seatemp/sea-temperature/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/seatemp/sea-temperature/docs" // Import generated swagger docs
)

type Router struct {
	cfg          *config.Config
	logger       *zap.Logger
	db           *gorm.DB
	static       fs.FS
	rateLimiter  *middleware.RateLimiter
	pointHandler *handler.PointHandler
	adminHandler *handler.AdminHandler
	pageHandler  *handler.PageHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	static fs.FS,
	rateLimiter *middleware.RateLimiter,
	pointHandler *handler.PointHandler,
	adminHandler *handler.AdminHandler,
	pageHandler *handler.PageHandler,
) *Router {
	return &Router{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		static:       static,
		rateLimiter:  rateLimiter,
		pointHandler: pointHandler,
		adminHandler: adminHandler,
		pageHandler:  pageHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Pages
	r.Get("/", rt.pageHandler.Landing)
	r.Get("/map", rt.pageHandler.Map)
	r.Get("/about", rt.pageHandler.About)
	r.Handle("/static/*", http.FileServer(http.FS(rt.static)))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(rt.cfg.Server.RequestTimeoutDuration()))
			r.Get("/point", rt.pointHandler.GetPoint)
			r.Get("/tiles", rt.pointHandler.ListTiles)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAPIKey(rt.cfg.ApiKey.Value, rt.logger))
			r.Post("/refresh", rt.adminHandler.Refresh)
			r.Post("/preload", rt.adminHandler.Preload)
		})
	})

	return r
}

// databaseHealth reports connection pool stats
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"driver":  rt.cfg.Database.Driver,
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

// readiness checks every dependency needed to answer point queries
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	healthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		healthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	if rt.cfg.Copernicus.HasCredentials() {
		checks["copernicus"] = map[string]interface{}{"status": "configured"}
	} else {
		checks["copernicus"] = map[string]interface{}{"status": "unhealthy", "error": "credentials not set"}
		healthy = false
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeHealth(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
