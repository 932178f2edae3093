package domain

// Point query statuses
const (
	PointStatusOK          = "ok"
	PointStatusUnavailable = "unavailable"
)

// PointQuery holds the validated parameters of a point lookup
type PointQuery struct {
	Lat      float64 `query:"lat" validate:"gte=-90,lte=90"`
	Lon      float64 `query:"lon" validate:"gte=-360,lte=360"`
	RadiusKm float64 `query:"radius_km" validate:"gt=0"`
	Date     string  `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

// PointTemperature is the aggregated temperature around a point.
// Aggregates are only set when Status is "ok".
type PointTemperature struct {
	Date      string     `json:"date"`
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	RadiusKm  float64    `json:"radius_km"`
	Status    string     `json:"status"`
	MeanC     *float64   `json:"mean_c,omitempty"`
	MinC      *float64   `json:"min_c,omitempty"`
	MaxC      *float64   `json:"max_c,omitempty"`
	CellsUsed int        `json:"cells_used,omitempty"`
	Debug     PointDebug `json:"debug"`
}

// PointDebug exposes cache behaviour for a point lookup
type PointDebug struct {
	TileID         string   `json:"tile_id"`
	TileFetchedNow int      `json:"tile_fetched_now"`
	Tiles          []string `json:"tiles,omitempty"`
	Cached         bool     `json:"cached,omitempty"`
}

// TileDTO describes a cached tile
type TileDTO struct {
	Date      string `json:"date"`
	TileID    string `json:"tileId"`
	FetchedAt string `json:"fetchedAt"`
}

// RefreshReport summarises a refresh or preload run
type RefreshReport struct {
	Date    string            `json:"date"`
	Tiles   int               `json:"tiles"`
	Fetched int               `json:"fetched"`
	Cached  int               `json:"cached"`
	Failed  int               `json:"failed"`
	Points  int               `json:"points"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Region is a latitude/longitude rectangle used for preloading
type Region struct {
	MinLat float64 `json:"minLat" validate:"gte=-90,lte=90"`
	MaxLat float64 `json:"maxLat" validate:"gte=-90,lte=90,gtefield=MinLat"`
	MinLon float64 `json:"minLon" validate:"gte=-180,lte=180"`
	MaxLon float64 `json:"maxLon" validate:"gte=-180,lte=180"`
}

// PruneReport summarises a retention run
type PruneReport struct {
	Before         string `json:"before"`
	TilesRemoved   int    `json:"tilesRemoved"`
	ArchiveRemoved int    `json:"archiveRemoved"`
}
