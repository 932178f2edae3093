package geo_test

import (
	"testing"

	"github.com/seatemp/sea-temperature/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileIDFor(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     string
	}{
		{43.7, 7.27, "42_6"},
		{0, 0, "0_0"},
		{-0.5, -0.5, "-2_-2"},
		{-33.9, 18.4, "-34_18"},
		{89.99, 179.99, "88_178"},
		{90, 0, "88_0"},
		{-90, -180, "-90_-180"},
		{1.999, 3.999, "0_2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, geo.TileIDFor(tt.lat, tt.lon), "TileIDFor(%v, %v)", tt.lat, tt.lon)
	}
}

func TestParseTileID(t *testing.T) {
	lat, lon, err := geo.ParseTileID("42_6")
	require.NoError(t, err)
	assert.Equal(t, 42.0, lat)
	assert.Equal(t, 6.0, lon)

	lat, lon, err = geo.ParseTileID("-34_-180")
	require.NoError(t, err)
	assert.Equal(t, -34.0, lat)
	assert.Equal(t, -180.0, lon)

	for _, bad := range []string{"", "42", "42_6_1", "a_6", "42_b", "90_0", "0_180", "-92_0"} {
		_, _, err := geo.ParseTileID(bad)
		assert.ErrorIs(t, err, geo.ErrInvalidTileID, "ParseTileID(%q)", bad)
	}
}

func TestTileBBox(t *testing.T) {
	b, err := geo.TileBBox("42_6")
	require.NoError(t, err)
	assert.Equal(t, geo.BBox{MinLat: 42, MaxLat: 44, MinLon: 6, MaxLon: 8}, b)

	_, err = geo.TileBBox("nope")
	assert.ErrorIs(t, err, geo.ErrInvalidTileID)
}

func TestTileIDRoundTrip(t *testing.T) {
	for lat := -90.0; lat < 90; lat += 7.3 {
		for lon := -180.0; lon < 180; lon += 11.1 {
			id := geo.TileIDFor(lat, lon)
			b, err := geo.TileBBox(id)
			require.NoError(t, err, id)
			assert.True(t, lat >= b.MinLat && lat < b.MaxLat, "lat %v outside %s", lat, id)
			assert.True(t, lon >= b.MinLon && lon < b.MaxLon, "lon %v outside %s", lon, id)
		}
	}
}

func TestTilesForBBox_SingleTile(t *testing.T) {
	ids := geo.TilesForBBox(geo.BBox{MinLat: 42.5, MaxLat: 43.5, MinLon: 6.5, MaxLon: 7.5})
	assert.Equal(t, []string{"42_6"}, ids)
}

func TestTilesForBBox_SpansTiles(t *testing.T) {
	ids := geo.TilesForBBox(geo.BBox{MinLat: 43.9, MaxLat: 44.1, MinLon: 7.9, MaxLon: 8.1})
	assert.ElementsMatch(t, []string{"42_6", "42_8", "44_6", "44_8"}, ids)
}

func TestTilesForBBox_Dateline(t *testing.T) {
	ids := geo.TilesForBBox(geo.BBox{MinLat: 0.5, MaxLat: 1.5, MinLon: 179, MaxLon: -179})
	assert.ElementsMatch(t, []string{"0_178", "0_-180"}, ids)
}

func TestTilesForBBox_Mediterranean(t *testing.T) {
	ids := geo.TilesForBBox(geo.BBox{MinLat: 30, MaxLat: 46, MinLon: -10, MaxLon: 40})
	// 9 rows (30..46) x 26 columns (-10..40)
	assert.Len(t, ids, 9*26)
	assert.Contains(t, ids, "42_6")
	assert.Contains(t, ids, "46_40")
}

func TestTilesForBBox_FullLongitudeNoDuplicates(t *testing.T) {
	ids := geo.TilesForBBox(geo.BBox{MinLat: 88.5, MaxLat: 90, MinLon: -180, MaxLon: 180})
	assert.Len(t, ids, 180)

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}
