package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/seatemp/sea-temperature/internal/geo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertBatchSize keeps multi-row inserts under SQLite's bound-variable limit
const insertBatchSize = 150

// TileRepository handles database operations for cached SST tiles and grid cells
type TileRepository struct {
	db *gorm.DB
}

// NewTileRepository creates a new TileRepository
func NewTileRepository(db *gorm.DB) *TileRepository {
	return &TileRepository{db: db}
}

// Exists reports whether a tile has been cached for date
func (r *TileRepository) Exists(ctx context.Context, date, tileID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.SSTTile{}).
		Where("date = ? AND tile_id = ?", date, tileID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Store replaces every cached cell of a tile and marks the tile as fetched.
// Returns the number of cells written.
func (r *TileRepository) Store(ctx context.Context, date, tileID string, cells []domain.GridCell) (int, error) {
	points := dedupeCells(date, tileID, cells)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date = ? AND tile_id = ?", date, tileID).
			Delete(&domain.SSTGridPoint{}).Error; err != nil {
			return fmt.Errorf("failed to clear tile points: %w", err)
		}

		if len(points) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
				CreateInBatches(points, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert tile points: %w", err)
			}
		}

		tile := domain.SSTTile{
			Date:      date,
			TileID:    tileID,
			FetchedAt: time.Now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "tile_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"fetched_at"}),
		}).Create(&tile).Error; err != nil {
			return fmt.Errorf("failed to mark tile fetched: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(points), nil
}

// dedupeCells converts cells to rows, keeping the last value for repeated coordinates
func dedupeCells(date, tileID string, cells []domain.GridCell) []domain.SSTGridPoint {
	type key struct{ lat, lon float64 }
	index := make(map[key]int, len(cells))
	points := make([]domain.SSTGridPoint, 0, len(cells))
	for _, c := range cells {
		k := key{c.Lat, c.Lon}
		p := domain.SSTGridPoint{Date: date, TileID: tileID, Lat: c.Lat, Lon: c.Lon, TempC: c.TempC}
		if i, ok := index[k]; ok {
			points[i] = p
			continue
		}
		index[k] = len(points)
		points = append(points, p)
	}
	return points
}

// QueryBBox returns the cached cells of date inside bbox. Cells on a shared
// tile edge are stored once per tile and returned once.
// A box with MinLon > MaxLon is matched across the antimeridian.
func (r *TileRepository) QueryBBox(ctx context.Context, date string, bbox geo.BBox) ([]domain.GridCell, error) {
	query := r.db.WithContext(ctx).
		Model(&domain.SSTGridPoint{}).
		Distinct("lat", "lon", "temp_c").
		Where("date = ?", date).
		Where("lat BETWEEN ? AND ?", bbox.MinLat, bbox.MaxLat)

	if bbox.CrossesDateline() {
		query = query.Where("(lon BETWEEN ? AND 180 OR lon BETWEEN -180 AND ?)", bbox.MinLon, bbox.MaxLon)
	} else {
		query = query.Where("lon BETWEEN ? AND ?", bbox.MinLon, bbox.MaxLon)
	}

	var cells []domain.GridCell
	if err := query.Order("lat, lon").Scan(&cells).Error; err != nil {
		return nil, err
	}
	return cells, nil
}

// ListTileIDs returns every distinct tile id that has ever been cached
func (r *TileRepository) ListTileIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.SSTTile{}).
		Distinct("tile_id").
		Order("tile_id ASC").
		Pluck("tile_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListTiles returns the tiles cached for date
func (r *TileRepository) ListTiles(ctx context.Context, date string) ([]domain.SSTTile, error) {
	var tiles []domain.SSTTile
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("tile_id ASC").
		Find(&tiles).Error
	if err != nil {
		return nil, err
	}
	return tiles, nil
}

// CountPoints returns the number of cells cached for a tile
func (r *TileRepository) CountPoints(ctx context.Context, date, tileID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.SSTGridPoint{}).
		Where("date = ? AND tile_id = ?", date, tileID).
		Count(&count).Error
	return count, err
}

// DeleteBefore removes every tile and cell with a date strictly before date
// and returns the removed tiles
func (r *TileRepository) DeleteBefore(ctx context.Context, date string) ([]domain.SSTTile, error) {
	var removed []domain.SSTTile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date < ?", date).Find(&removed).Error; err != nil {
			return err
		}
		if err := tx.Where("date < ?", date).Delete(&domain.SSTGridPoint{}).Error; err != nil {
			return fmt.Errorf("failed to delete grid points: %w", err)
		}
		if err := tx.Where("date < ?", date).Delete(&domain.SSTTile{}).Error; err != nil {
			return fmt.Errorf("failed to delete tiles: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
