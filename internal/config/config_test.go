package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string]string

func (m mapSource) GetSecretOrEnv(_ context.Context, name, _ string) (string, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestLoad_Defaults(t *testing.T) {
	for _, name := range []string{"PORT", "APP_PORT", "SST_DB_PATH", "DATABASE_PATH", "DATABASE_DRIVER"} {
		t.Setenv(name, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/data/sst.sqlite", cfg.Database.Path)
	assert.Equal(t, 3.0, cfg.SST.DefaultRadiusKm)
	assert.Equal(t, 100.0, cfg.SST.MaxRadiusKm)
	assert.Equal(t, 6, cfg.SST.MaxTilesPerRequest)
	assert.Equal(t, "0 30 2 * * *", cfg.Refresh.Cron)
	assert.Equal(t, 14, cfg.Retention.Days)
	assert.Equal(t, "none", cfg.Storage.Mode)
	assert.Equal(t, "none", cfg.Cache.Mode)
	assert.Equal(t, 30.0, cfg.Preload.MinLat)
	assert.Equal(t, 40.0, cfg.Preload.MaxLon)
	assert.Equal(t, time.Hour, cfg.Refresh.TimeoutDuration())
	assert.Equal(t, time.Hour, cfg.Cache.TTLDuration())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "9100")
	t.Setenv("SST_DB_PATH", "/tmp/sst-test.sqlite")
	t.Setenv("COPERNICUSMARINE_USERNAME", "alice")
	t.Setenv("COPERNICUSMARINE_PASSWORD", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, "/tmp/sst-test.sqlite", cfg.Database.Path)
	assert.True(t, cfg.Copernicus.HasCredentials())
}

func TestApplySecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "postgres"
	cfg.Cache.RedisPassword = "keep-me"

	err := config.ApplySecrets(context.Background(), cfg, mapSource{
		"copernicus-username":    "alice",
		"copernicus-password":    "secret",
		"admin-api-key":          "admin",
		"POSTGRES-MAIN-PASSWORD": "pg",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Copernicus.Username)
	assert.Equal(t, "secret", cfg.Copernicus.Password)
	assert.Equal(t, "admin", cfg.ApiKey.Value)
	assert.Equal(t, "pg", cfg.Database.Password)
	assert.Equal(t, "keep-me", cfg.Cache.RedisPassword, "missing optional secrets leave values untouched")
}

func TestApplySecrets_MissingCredentials(t *testing.T) {
	cfg := &config.Config{}

	err := config.ApplySecrets(context.Background(), cfg, mapSource{})
	assert.Error(t, err)
}

func TestCopernicusConfig_HasCredentials(t *testing.T) {
	assert.False(t, (&config.CopernicusConfig{}).HasCredentials())
	assert.False(t, (&config.CopernicusConfig{Username: "a"}).HasCredentials())
	assert.True(t, (&config.CopernicusConfig{Username: "a", Password: "b"}).HasCredentials())
}
