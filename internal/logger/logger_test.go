package logger_test

import (
	"testing"

	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Levels(t *testing.T) {
	app := &config.AppConfig{Name: "sea-temperature", Environment: "development"}

	log, err := logger.NewLogger(&config.LoggingConfig{Level: "debug", Format: "console"}, app)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = logger.NewLogger(&config.LoggingConfig{Level: "loud", Format: "json"}, app)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel), "unknown levels fall back to info")
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestWithTile(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	logger.WithTile(zap.New(core), "2024-07-01", "42_6").Info("Tile cached")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "2024-07-01", fields["date"])
	assert.Equal(t, "42_6", fields["tile_id"])
}

func TestWithRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	logger.WithRequest(zap.New(core), "GET", "/api/point", "req-1").Info("GET /api/point")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/point", fields["path"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestGooseLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	logger.NewGooseLogger(zap.New(core)).Printf("OK   %s (%s)", "00001_create_sst_cache.sql", "2ms")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "OK   00001_create_sst_cache.sql (2ms)", logs.All()[0].Message)
}
