package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/seatemp/sea-temperature/internal/cache"
	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/copernicus"
	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/seatemp/sea-temperature/internal/geo"
	"github.com/seatemp/sea-temperature/internal/logger"
	"github.com/seatemp/sea-temperature/internal/repository"
	"github.com/seatemp/sea-temperature/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TileFetcher downloads one tile grid from the upstream source
type TileFetcher interface {
	FetchTile(ctx context.Context, tileID, date string) (*copernicus.TileData, error)
}

// SSTService owns the tile cache: it fetches missing tiles on demand, answers
// point queries from the local grid and runs the bulk refresh and retention tasks.
type SSTService struct {
	tileRepo *repository.TileRepository
	fetcher  TileFetcher
	archive  storage.Storage
	points   cache.PointCache
	cfg      *config.SSTConfig
	logger   *zap.Logger
	locks    *keyedLocker
	now      func() time.Time
}

// NewSSTService creates a new SSTService. The archive is disabled and the
// point cache is a no-op until SetArchive/SetPointCache are called.
func NewSSTService(
	tileRepo *repository.TileRepository,
	fetcher TileFetcher,
	cfg *config.SSTConfig,
	logger *zap.Logger,
) *SSTService {
	return &SSTService{
		tileRepo: tileRepo,
		fetcher:  fetcher,
		points:   cache.Nop{},
		cfg:      cfg,
		logger:   logger,
		locks:    newKeyedLocker(),
		now:      time.Now,
	}
}

// SetArchive enables archiving of raw upstream payloads
func (s *SSTService) SetArchive(archive storage.Storage) {
	s.archive = archive
}

// SetPointCache installs a cache for aggregated point results
func (s *SSTService) SetPointCache(points cache.PointCache) {
	if points == nil {
		points = cache.Nop{}
	}
	s.points = points
}

// SetClock overrides the clock used to resolve default dates
func (s *SSTService) SetClock(now func() time.Time) {
	s.now = now
}

// ResolveDate returns the day to query: yesterday (UTC) when value is empty,
// otherwise the validated value.
func (s *SSTService) ResolveDate(value string) (string, error) {
	if value == "" {
		return YesterdayUTC(s.now()), nil
	}
	return ParseDate(value, s.now())
}

// EnsureTile makes sure (date, tileID) is cached locally and returns the number
// of grid points stored by this call. Concurrent callers for the same tile
// share a lock, so only the first one fetches; the others return 0.
func (s *SSTService) EnsureTile(ctx context.Context, date, tileID string) (int, error) {
	if _, _, err := geo.ParseTileID(tileID); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	unlock, err := s.locks.Lock(ctx, date+":"+tileID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	exists, err := s.tileRepo.Exists(ctx, date, tileID)
	if err != nil {
		return 0, fmt.Errorf("failed to check tile cache: %w", err)
	}
	if exists {
		return 0, nil
	}

	log := logger.WithTile(s.logger, date, tileID)
	start := time.Now()

	data, err := s.fetcher.FetchTile(ctx, tileID, date)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("fetching tile %s for %s: %w", tileID, date, ctxErr)
		}
		return 0, fmt.Errorf("%w: tile %s for %s: %w", ErrUpstreamUnavailable, tileID, date, err)
	}

	s.archiveRaw(ctx, log, date, tileID, data.Raw)

	stored, err := s.tileRepo.Store(ctx, date, tileID, data.Cells)
	if err != nil {
		return 0, fmt.Errorf("failed to store tile: %w", err)
	}

	log.Info("Tile cached",
		zap.String("source_date", data.SourceDate),
		zap.Int("points", stored),
		zap.Duration("duration", time.Since(start)),
	)
	return stored, nil
}

// archiveRaw writes the upstream payload to the archive. Failures are logged only.
func (s *SSTService) archiveRaw(ctx context.Context, log *zap.Logger, date, tileID string, raw []byte) {
	if s.archive == nil || len(raw) == 0 {
		return
	}
	key := storage.ArchiveKey(date, tileID)
	if _, err := s.archive.Put(ctx, key, "application/json", bytes.NewReader(raw), int64(len(raw))); err != nil {
		log.Warn("Failed to archive raw tile payload", zap.String("key", key), zap.Error(err))
	}
}

// PointTemperature aggregates the cached grid cells within radiusKm of
// (lat, lon) for date, fetching any missing tiles first.
func (s *SSTService) PointTemperature(ctx context.Context, date string, lat, lon, radiusKm float64) (*domain.PointTemperature, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: lat must be within [-90, 90]", ErrInvalidInput)
	}
	if radiusKm <= 0 || radiusKm > s.cfg.MaxRadiusKm {
		return nil, fmt.Errorf("%w: radius_km must be within (0, %g]", ErrInvalidInput, s.cfg.MaxRadiusKm)
	}

	lon = geo.WrapLon180(lon)

	key := cache.PointKey(date, lat, lon, radiusKm)
	if hit, ok := s.points.Get(ctx, key); ok {
		hit.Debug.Cached = true
		hit.Debug.TileFetchedNow = 0
		return hit, nil
	}

	centerID := geo.TileIDFor(lat, lon)
	bbox := geo.BBoxForRadiusKm(lat, lon, radiusKm).Wrapped()
	tiles := orderTiles(centerID, tilesWithinRadius(geo.TilesForBBox(bbox), lat, lon, radiusKm))
	if len(tiles) > s.cfg.MaxTilesPerRequest {
		return nil, fmt.Errorf("%w: search area spans %d tiles (max %d)",
			ErrInvalidInput, len(tiles), s.cfg.MaxTilesPerRequest)
	}

	fetched, complete, err := s.ensureTiles(ctx, date, tiles)
	if err != nil {
		return nil, err
	}

	cells, err := s.tileRepo.QueryBBox(ctx, date, bbox)
	if err != nil {
		return nil, fmt.Errorf("failed to query grid: %w", err)
	}

	result := aggregate(cells, lat, lon, radiusKm)
	result.Date = date
	result.Lat = lat
	result.Lon = lon
	result.RadiusKm = radiusKm
	result.Debug = domain.PointDebug{
		TileID:         centerID,
		TileFetchedNow: fetched,
		Tiles:          tiles,
	}

	if complete {
		s.points.Set(ctx, key, result)
	}
	return result, nil
}

// ensureTiles ensures every tile, the first one being the center tile. A
// failure on the center tile fails the query; failures on neighbours are
// logged and reported through complete=false.
func (s *SSTService) ensureTiles(ctx context.Context, date string, tiles []string) (fetched int, complete bool, err error) {
	counts := make([]int, len(tiles))
	errs := make([]error, len(tiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, tileID := range tiles {
		i, tileID := i, tileID
		g.Go(func() error {
			counts[i], errs[i] = s.EnsureTile(gctx, date, tileID)
			if i == 0 {
				return errs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, false, err
	}

	complete = true
	for i, n := range counts {
		fetched += n
		if errs[i] != nil {
			complete = false
			s.logger.Warn("Neighbour tile unavailable, answering from partial grid",
				zap.String("date", date),
				zap.String("tile_id", tiles[i]),
				zap.Error(errs[i]),
			)
		}
	}
	return fetched, complete, nil
}

func (s *SSTService) concurrency() int {
	if s.cfg.RefreshConcurrency > 0 {
		return s.cfg.RefreshConcurrency
	}
	return 1
}

// tilesWithinRadius drops the tiles the box reaches but the circle does not
func tilesWithinRadius(tiles []string, lat, lon, radiusKm float64) []string {
	out := tiles[:0:0]
	for _, id := range tiles {
		b, err := geo.TileBBox(id)
		if err != nil || geo.DistanceToBBoxKm(lat, lon, b) <= radiusKm {
			out = append(out, id)
		}
	}
	return out
}

// orderTiles puts center first and keeps the remaining ids in grid order
func orderTiles(center string, tiles []string) []string {
	out := make([]string, 0, len(tiles)+1)
	out = append(out, center)
	for _, id := range tiles {
		if id != center {
			out = append(out, id)
		}
	}
	return out
}

// aggregate filters cells to the great-circle radius and computes the rounded
// mean/min/max. No cells in range yields status "unavailable".
func aggregate(cells []domain.GridCell, lat, lon, radiusKm float64) *domain.PointTemperature {
	var sum float64
	minC := math.Inf(1)
	maxC := math.Inf(-1)
	used := 0

	for _, c := range cells {
		if geo.HaversineKm(lat, lon, c.Lat, c.Lon) > radiusKm {
			continue
		}
		sum += c.TempC
		minC = math.Min(minC, c.TempC)
		maxC = math.Max(maxC, c.TempC)
		used++
	}

	if used == 0 {
		return &domain.PointTemperature{Status: domain.PointStatusUnavailable}
	}

	mean := round2(sum / float64(used))
	minC = round2(minC)
	maxC = round2(maxC)
	return &domain.PointTemperature{
		Status:    domain.PointStatusOK,
		MeanC:     &mean,
		MinC:      &minC,
		MaxC:      &maxC,
		CellsUsed: used,
	}
}

// round2 rounds half to even, so 20.125 becomes 20.12
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// ListTiles returns the tiles cached for date
func (s *SSTService) ListTiles(ctx context.Context, date string) ([]domain.TileDTO, error) {
	tiles, err := s.tileRepo.ListTiles(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiles: %w", err)
	}
	out := make([]domain.TileDTO, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, domain.TileDTO{
			Date:      t.Date,
			TileID:    t.TileID,
			FetchedAt: t.FetchedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// RefreshKnownTiles ensures every tile id ever cached is present for date.
// The report is always returned; ErrRefreshIncomplete is returned alongside it
// when any tile failed.
func (s *SSTService) RefreshKnownTiles(ctx context.Context, date string) (*domain.RefreshReport, error) {
	ids, err := s.tileRepo.ListTileIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list known tiles: %w", err)
	}
	if len(ids) == 0 {
		s.logger.Info("No tiles to refresh", zap.String("date", date))
		return &domain.RefreshReport{Date: date}, nil
	}

	s.logger.Info("Refreshing known tiles", zap.String("date", date), zap.Int("tiles", len(ids)))
	return s.runTiles(ctx, date, ids)
}

// PreloadRegion ensures every tile intersecting region is cached for date
func (s *SSTService) PreloadRegion(ctx context.Context, date string, region domain.Region) (*domain.RefreshReport, error) {
	if region.MinLat > region.MaxLat {
		return nil, fmt.Errorf("%w: minLat must not exceed maxLat", ErrInvalidInput)
	}
	bbox := geo.BBox{
		MinLat: region.MinLat,
		MaxLat: region.MaxLat,
		MinLon: region.MinLon,
		MaxLon: region.MaxLon,
	}.Wrapped()
	ids := geo.TilesForBBox(bbox)

	s.logger.Info("Preloading region",
		zap.String("date", date),
		zap.Int("tiles", len(ids)),
		zap.Float64("min_lat", region.MinLat),
		zap.Float64("max_lat", region.MaxLat),
		zap.Float64("min_lon", region.MinLon),
		zap.Float64("max_lon", region.MaxLon),
	)
	return s.runTiles(ctx, date, ids)
}

// runTiles ensures ids in parallel. One failing tile does not stop the others.
func (s *SSTService) runTiles(ctx context.Context, date string, ids []string) (*domain.RefreshReport, error) {
	report := &domain.RefreshReport{Date: date, Tiles: len(ids)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.concurrency())
	for _, tileID := range ids {
		tileID := tileID
		g.Go(func() error {
			n, err := s.EnsureTile(ctx, date, tileID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed++
				if report.Errors == nil {
					report.Errors = make(map[string]string)
				}
				report.Errors[tileID] = err.Error()
				logger.WithTile(s.logger, date, tileID).Error("Tile refresh failed", zap.Error(err))
			case n > 0:
				report.Fetched++
				report.Points += n
			default:
				report.Cached++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("Tile run finished",
		zap.String("date", date),
		zap.Int("tiles", report.Tiles),
		zap.Int("fetched", report.Fetched),
		zap.Int("cached", report.Cached),
		zap.Int("failed", report.Failed),
		zap.Int("points", report.Points),
	)

	if report.Failed > 0 {
		return report, fmt.Errorf("%w: %d of %d tiles failed", ErrRefreshIncomplete, report.Failed, report.Tiles)
	}
	return report, nil
}

// PruneBefore drops cached tiles older than before, along with their archived payloads
func (s *SSTService) PruneBefore(ctx context.Context, before string) (*domain.PruneReport, error) {
	removed, err := s.tileRepo.DeleteBefore(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("failed to prune tiles: %w", err)
	}

	report := &domain.PruneReport{Before: before, TilesRemoved: len(removed)}
	if s.archive != nil {
		for _, t := range removed {
			key := storage.ArchiveKey(t.Date, t.TileID)
			if err := s.archive.Delete(ctx, key); err != nil {
				if !errors.Is(err, storage.ErrNotFound) {
					s.logger.Warn("Failed to delete archived tile", zap.String("key", key), zap.Error(err))
				}
				continue
			}
			report.ArchiveRemoved++
		}
	}

	s.logger.Info("Pruned tile cache",
		zap.String("before", before),
		zap.Int("tiles_removed", report.TilesRemoved),
		zap.Int("archive_removed", report.ArchiveRemoved),
	)
	return report, nil
}

// ReimportTile rebuilds (date, tileID) from the archived upstream payload,
// replacing whatever is cached. It never contacts the upstream.
func (s *SSTService) ReimportTile(ctx context.Context, date, tileID, variable string) (int, error) {
	if s.archive == nil {
		return 0, ErrArchiveDisabled
	}
	if _, _, err := geo.ParseTileID(tileID); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	key := storage.ArchiveKey(date, tileID)
	rc, err := s.archive.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%w: no archived payload for %s", ErrNotFound, key)
		}
		return 0, fmt.Errorf("failed to read archive: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return 0, fmt.Errorf("failed to read archive: %w", err)
	}
	data, err := copernicus.ParseGriddap(raw, variable)
	if err != nil {
		return 0, err
	}

	unlock, err := s.locks.Lock(ctx, date+":"+tileID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	stored, err := s.tileRepo.Store(ctx, date, tileID, data.Cells)
	if err != nil {
		return 0, fmt.Errorf("failed to store tile: %w", err)
	}
	logger.WithTile(s.logger, date, tileID).Info("Tile reimported from archive", zap.Int("points", stored))
	return stored, nil
}
