package logger

import (
	"fmt"

	"github.com/seatemp/sea-temperature/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new structured logger
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" || appCfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}

// WithRequest adds request context to logger
func WithRequest(logger *zap.Logger, method, path, requestID string) *zap.Logger {
	return logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithTile adds tile context to logger
func WithTile(logger *zap.Logger, date, tileID string) *zap.Logger {
	return logger.With(
		zap.String("date", date),
		zap.String("tile_id", tileID),
	)
}

// GooseLogger adapts a zap logger to goose's logger interface
type GooseLogger struct {
	*zap.SugaredLogger
}

// NewGooseLogger wraps logger for use with goose.SetLogger
func NewGooseLogger(logger *zap.Logger) *GooseLogger {
	return &GooseLogger{SugaredLogger: logger.Sugar()}
}

// Printf logs migration progress at info level
func (l *GooseLogger) Printf(format string, v ...interface{}) {
	l.Infof(format, v...)
}
