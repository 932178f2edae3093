// Package testutil holds helpers shared by package tests
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/database"
	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupTestDB opens a migrated SQLite database in a temp dir that is removed
// when the test ends
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:        database.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "sst.sqlite"),
		MaxOpenConns:  4,
		MaxIdleConns:  2,
		BusyTimeoutMs: 5000,
	}

	log := zap.NewNop()
	db, err := database.NewDatabase(cfg, log)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, database.Migrate(db, database.DriverSQLite, log), "failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedTile stores cells for (date, tileID) directly, bypassing the upstream
func SeedTile(t *testing.T, db *gorm.DB, date, tileID string, cells ...domain.GridCell) {
	t.Helper()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&domain.SSTTile{Date: date, TileID: tileID, FetchedAt: time.Now().UTC()}).Error; err != nil {
			return err
		}
		for _, c := range cells {
			p := domain.SSTGridPoint{Date: date, TileID: tileID, Lat: c.Lat, Lon: c.Lon, TempC: c.TempC}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}
