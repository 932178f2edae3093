// Package commands implements sstctl, the operator CLI for the tile cache.
package commands

import (
	"context"
	"fmt"

	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/copernicus"
	"github.com/seatemp/sea-temperature/internal/database"
	"github.com/seatemp/sea-temperature/internal/logger"
	"github.com/seatemp/sea-temperature/internal/repository"
	"github.com/seatemp/sea-temperature/internal/service"
	"github.com/seatemp/sea-temperature/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is the wiring shared by every subcommand
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	upstream *copernicus.Client
	sst      *service.SSTService
}

var (
	dbPath  string
	current *app
)

// Execute runs the root command
func Execute() error {
	root := &cobra.Command{
		Use:          "sstctl",
		Short:        "Maintain the sea surface temperature tile cache",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			current = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if current == nil {
				return
			}
			if sqlDB, err := current.db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			_ = current.log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides SST_DB_PATH)")

	root.AddCommand(refreshCmd(), preloadCmd(), pointCmd(), pruneCmd(), reimportCmd())
	return root.ExecuteContext(context.Background())
}

func setup(ctx context.Context) (*app, error) {
	basicCfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, cfg.Database.Driver, log); err != nil {
		return nil, err
	}

	upstream := copernicus.NewClient(&cfg.Copernicus, log)
	sst := service.NewSSTService(repository.NewTileRepository(db), upstream, &cfg.SST, log)

	archive, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if archive != nil {
		sst.SetArchive(archive)
	}

	return &app{cfg: cfg, log: log, db: db, upstream: upstream, sst: sst}, nil
}

// resolveDate turns the --date flag into a day, defaulting to yesterday (UTC)
func resolveDate(flag string) (string, error) {
	return current.sst.ResolveDate(flag)
}

// requireUpstream fails fast when a command may need to download tiles
func requireUpstream() error {
	if err := current.upstream.CheckCredentials(); err != nil {
		return fmt.Errorf("set COPERNICUSMARINE_USERNAME and COPERNICUSMARINE_PASSWORD: %w", err)
	}
	return nil
}
