package domain

import "time"

// SSTTile marks a (date, tile) pair as cached. Its presence means every
// non-masked grid cell of the tile for that date is stored in sst_grid.
type SSTTile struct {
	Date      string    `gorm:"column:date;type:text;primaryKey" json:"date"`
	TileID    string    `gorm:"column:tile_id;type:text;primaryKey" json:"tileId"`
	FetchedAt time.Time `gorm:"column:fetched_at;not null" json:"fetchedAt"`
}

func (SSTTile) TableName() string {
	return "sst_tile"
}

// SSTGridPoint is one cached grid cell
type SSTGridPoint struct {
	Date   string  `gorm:"column:date;type:text;primaryKey"`
	TileID string  `gorm:"column:tile_id;type:text;primaryKey"`
	Lat    float64 `gorm:"column:lat;primaryKey"`
	Lon    float64 `gorm:"column:lon;primaryKey"`
	TempC  float64 `gorm:"column:temp_c;not null"`
}

func (SSTGridPoint) TableName() string {
	return "sst_grid"
}

// GridCell is a single sea surface temperature sample in degrees Celsius.
// Lon is in [-180, 180).
type GridCell struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	TempC float64 `json:"tempC"`
}
