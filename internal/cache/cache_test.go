package cache_test

import (
	"context"
	"testing"

	"github.com/seatemp/sea-temperature/internal/cache"
	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPointKey(t *testing.T) {
	assert.Equal(t, "sst:point:2024-07-01:43.7000:7.2700:3.00", cache.PointKey("2024-07-01", 43.7, 7.27, 3))

	// near-identical clicks share an entry
	assert.Equal(t,
		cache.PointKey("2024-07-01", 43.700001, 7.27, 3),
		cache.PointKey("2024-07-01", 43.7, 7.270004, 3),
	)
	assert.NotEqual(t,
		cache.PointKey("2024-07-01", 43.7, 7.27, 3),
		cache.PointKey("2024-07-02", 43.7, 7.27, 3),
	)
	assert.NotEqual(t,
		cache.PointKey("2024-07-01", 43.7, 7.27, 3),
		cache.PointKey("2024-07-01", 43.7, 7.27, 5),
	)
}

func TestNew_NoneIsNop(t *testing.T) {
	c, err := cache.New(context.Background(), &config.CacheConfig{Mode: "none"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, cache.Nop{}, c)
}

func TestNew_UnsupportedMode(t *testing.T) {
	_, err := cache.New(context.Background(), &config.CacheConfig{Mode: "memcached"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNop_NeverHits(t *testing.T) {
	var c cache.PointCache = cache.Nop{}
	ctx := context.Background()

	c.Set(ctx, "k", &domain.PointTemperature{Status: domain.PointStatusOK})
	got, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.Close())
}
