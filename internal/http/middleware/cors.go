package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/seatemp/sea-temperature/internal/config"
	"go.uber.org/zap"
)

// CORS builds the go-chi/cors handler. A "*" origin, or no origins in a
// development environment, allows any origin; no origins elsewhere denies all.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	anyOrigin := func(r *http.Request, origin string) bool { return origin != "" }

	switch {
	case containsWildcard(cfg.AllowedOrigins):
		if !isDevelopment(environment) {
			logger.Warn("CORS allows any origin outside development", zap.String("environment", environment))
		}
		options.AllowOriginFunc = anyOrigin
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", cfg.AllowedOrigins))
	case isDevelopment(environment):
		options.AllowOriginFunc = anyOrigin
		logger.Info("CORS allows any origin in development")
	default:
		// empty AllowedOrigins would mean "*" to go-chi/cors
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("CORS has no allowed origins, cross-origin requests are denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func isDevelopment(environment string) bool {
	switch environment {
	case "", "development", "local", "test":
		return true
	}
	return false
}
