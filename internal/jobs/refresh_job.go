package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/seatemp/sea-temperature/internal/domain"
	"go.uber.org/zap"
)

// RefreshJobName is the name of the daily tile refresh job
const RefreshJobName = "sst_refresh"

// TileRefresher refreshes every known tile for a day
type TileRefresher interface {
	RefreshKnownTiles(ctx context.Context, date string) (*domain.RefreshReport, error)
}

// RefreshJob fetches yesterday's grid for every tile id seen so far, so the
// first point query of the day does not pay for the upstream download.
type RefreshJob struct {
	refresher TileRefresher
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(refresher TileRefresher, logger *zap.Logger, timeout time.Duration) *RefreshJob {
	return &RefreshJob{
		refresher: refresher,
		logger:    logger,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Run refreshes yesterday (UTC). Called by the scheduler.
func (j *RefreshJob) Run() {
	date := j.now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	_, _ = j.RunForDate(date)
}

// RunForDate refreshes all known tiles for date and logs the outcome
func (j *RefreshJob) RunForDate(date string) (*domain.RefreshReport, error) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	report, err := j.refresher.RefreshKnownTiles(ctx, date)
	if err != nil {
		fields := []zap.Field{
			zap.String("date", date),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		}
		if report != nil {
			fields = append(fields, zap.Int("failed", report.Failed), zap.Int("tiles", report.Tiles))
		}
		if errors.Is(err, context.DeadlineExceeded) {
			j.logger.Error("Tile refresh timed out", fields...)
		} else {
			j.logger.Error("Tile refresh failed", fields...)
		}
		return report, err
	}

	j.logger.Info("Tile refresh completed",
		zap.String("date", date),
		zap.Int("tiles", report.Tiles),
		zap.Int("fetched", report.Fetched),
		zap.Int("points", report.Points),
		zap.Duration("duration", time.Since(start)))
	return report, nil
}

// RegisterRefreshJob schedules the refresh job. With runOnStartup the first
// run starts immediately in the background so it does not block API startup.
func RegisterRefreshJob(scheduler *Scheduler, refresher TileRefresher, logger *zap.Logger, cronExpr string, timeout time.Duration, runOnStartup bool) error {
	job := NewRefreshJob(refresher, logger, timeout)

	if runOnStartup {
		go job.Run()
	}

	return scheduler.AddJob(RefreshJobName, cronExpr, job.Run)
}
