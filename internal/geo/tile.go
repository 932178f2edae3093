package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TileDeg is the edge length of a cache tile in degrees.
const TileDeg = 2.0

// ErrInvalidTileID is returned when a tile id cannot be parsed.
var ErrInvalidTileID = errors.New("invalid tile id")

// TileOrigin snaps value down to the grid defined by step.
func TileOrigin(value, step float64) float64 {
	return math.Floor(value/step)*step + 0
}

// TileIDFor returns the id of the tile containing (lat, lon). lon must already
// be in [-180, 180).
func TileIDFor(lat, lon float64) string {
	a := TileOrigin(lat, TileDeg)
	// the pole belongs to the last real row
	if a >= 90 {
		a = 90 - TileDeg
	}
	o := TileOrigin(lon, TileDeg)
	return FormatTileID(a, o)
}

// FormatTileID renders a tile origin as "<lat>_<lon>".
func FormatTileID(latOrigin, lonOrigin float64) string {
	return fmt.Sprintf("%.0f_%.0f", latOrigin+0, lonOrigin+0)
}

// ParseTileID returns the origin encoded in a tile id.
func ParseTileID(tileID string) (latOrigin, lonOrigin float64, err error) {
	parts := strings.Split(tileID, "_")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTileID, tileID)
	}
	latOrigin, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTileID, tileID)
	}
	lonOrigin, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTileID, tileID)
	}
	if latOrigin < -90 || latOrigin >= 90 || lonOrigin < -180 || lonOrigin >= 180 {
		return 0, 0, fmt.Errorf("%w: %q out of range", ErrInvalidTileID, tileID)
	}
	return latOrigin, lonOrigin, nil
}

// TileBBox returns the box covered by a tile.
func TileBBox(tileID string) (BBox, error) {
	a, o, err := ParseTileID(tileID)
	if err != nil {
		return BBox{}, err
	}
	return BBox{
		MinLat: a,
		MaxLat: a + TileDeg,
		MinLon: o,
		MaxLon: o + TileDeg,
	}, nil
}

// TilesForBBox lists the ids of every tile intersecting b. Longitudes of b must
// be in [-180, 180); a box with MinLon > MaxLon is treated as crossing the
// antimeridian.
func TilesForBBox(b BBox) []string {
	latStart := TileOrigin(b.MinLat, TileDeg)
	latEnd := TileOrigin(b.MaxLat, TileDeg)
	if latEnd >= 90 {
		latEnd = 90 - TileDeg
	}
	if latStart >= 90 {
		latStart = 90 - TileDeg
	}

	var lonRanges [][2]float64
	if b.CrossesDateline() {
		lonRanges = [][2]float64{{b.MinLon, 180 - TileDeg}, {-180, b.MaxLon}}
	} else {
		lonRanges = [][2]float64{{b.MinLon, b.MaxLon}}
	}

	seen := make(map[string]bool)
	var ids []string
	for lat := latStart; lat <= latEnd; lat += TileDeg {
		for _, r := range lonRanges {
			lonStart := TileOrigin(r[0], TileDeg)
			lonEnd := TileOrigin(r[1], TileDeg)
			for lon := lonStart; lon <= lonEnd; lon += TileDeg {
				id := FormatTileID(lat, WrapLon180(lon))
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}
