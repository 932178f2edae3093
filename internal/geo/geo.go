// Package geo holds the spherical helpers and the fixed tile grid used to
// partition the SST cache.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// kmPerDegree approximates the length of one degree of latitude.
const kmPerDegree = 111.0

// BBox is a latitude/longitude box. MinLon > MaxLon means the box crosses the
// antimeridian.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// CrossesDateline reports whether the longitude range wraps past 180.
func (b BBox) CrossesDateline() bool {
	return b.MinLon > b.MaxLon
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dphi := radians(lat2 - lat1)
	dlmb := radians(lon2 - lon1)

	a := math.Pow(math.Sin(dphi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dlmb/2), 2)
	// rounding can push a a hair above 1 for antipodal points
	a = math.Min(a, 1)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// BBoxForRadiusKm returns a rough box around a point that contains every point
// within radiusKm. Longitudes are not wrapped.
func BBoxForRadiusKm(lat, lon, radiusKm float64) BBox {
	dlat := radiusKm / kmPerDegree
	dlon := 180.0
	if c := math.Cos(radians(lat)); c > 0 {
		dlon = math.Min(radiusKm/(kmPerDegree*c), 180.0)
	}
	return BBox{
		MinLat: math.Max(lat-dlat, -90),
		MaxLat: math.Min(lat+dlat, 90),
		MinLon: lon - dlon,
		MaxLon: lon + dlon,
	}
}

// DistanceToBBoxKm returns the great-circle distance from a point to the
// nearest point of b, 0 when the point lies inside it.
func DistanceToBBoxKm(lat, lon float64, b BBox) float64 {
	lon = WrapLon180(lon)
	if b.containsLon(lon) {
		nearest := math.Max(b.MinLat, math.Min(lat, b.MaxLat))
		return HaversineKm(lat, lon, nearest, lon)
	}

	edge, delta := b.MinLon, lonDelta(lon, b.MinLon)
	if d := lonDelta(lon, b.MaxLon); d < delta {
		edge, delta = b.MaxLon, d
	}

	// foot of the perpendicular from the point onto the edge meridian
	var foot float64
	if c := math.Cos(radians(delta)); c > 0 {
		foot = math.Atan(math.Tan(radians(lat))/c) * 180 / math.Pi
	} else if lat >= 0 {
		foot = 90
	} else {
		foot = -90
	}
	foot = math.Max(b.MinLat, math.Min(foot, b.MaxLat))
	return HaversineKm(lat, lon, foot, edge)
}

func (b BBox) containsLon(lon float64) bool {
	if b.CrossesDateline() {
		return lon >= b.MinLon || lon <= b.MaxLon
	}
	return lon >= b.MinLon && lon <= b.MaxLon
}

// lonDelta returns the absolute longitude difference in [0, 180]
func lonDelta(a, b float64) float64 {
	return math.Abs(WrapLon180(a - b))
}

// Wrapped returns b with longitudes normalised to [-180, 180). A box at least
// 360 degrees wide becomes the full longitude range instead of collapsing.
func (b BBox) Wrapped() BBox {
	if b.MaxLon-b.MinLon >= 360 {
		b.MinLon, b.MaxLon = -180, 180
		return b
	}
	b.MinLon = WrapLon180(b.MinLon)
	b.MaxLon = WrapLon180(b.MaxLon)
	return b
}

// WrapLon180 returns lon in [-180, 180).
func WrapLon180(lon float64) float64 {
	return floorMod(lon+180, 360) - 180
}

// WrapLon360 returns lon in [0, 360).
func WrapLon360(lon float64) float64 {
	return floorMod(lon, 360)
}

func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	// -0 and m itself can appear through float rounding
	if r >= m {
		r -= m
	}
	return r + 0
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
