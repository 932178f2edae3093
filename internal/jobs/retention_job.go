package jobs

import (
	"context"
	"time"

	"github.com/seatemp/sea-temperature/internal/domain"
	"go.uber.org/zap"
)

// RetentionJobName is the name of the cache retention job
const RetentionJobName = "sst_retention"

const retentionTimeout = 10 * time.Minute

// TilePruner deletes cached days older than a cutoff
type TilePruner interface {
	PruneBefore(ctx context.Context, before string) (*domain.PruneReport, error)
}

// RetentionJob keeps the cache bounded to the last N days
type RetentionJob struct {
	pruner TilePruner
	days   int
	logger *zap.Logger
	now    func() time.Time
}

// NewRetentionJob creates a retention job keeping days of data
func NewRetentionJob(pruner TilePruner, days int, logger *zap.Logger) *RetentionJob {
	return &RetentionJob{pruner: pruner, days: days, logger: logger, now: time.Now}
}

// Cutoff returns the first day that is kept
func (j *RetentionJob) Cutoff() string {
	return j.now().UTC().AddDate(0, 0, -j.days).Format("2006-01-02")
}

// Run prunes everything before the cutoff
func (j *RetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), retentionTimeout)
	defer cancel()

	before := j.Cutoff()
	if _, err := j.pruner.PruneBefore(ctx, before); err != nil {
		j.logger.Error("Retention run failed", zap.String("before", before), zap.Error(err))
	}
}

// RegisterRetentionJob schedules the retention job. days <= 0 disables it.
func RegisterRetentionJob(scheduler *Scheduler, pruner TilePruner, logger *zap.Logger, cronExpr string, days int) error {
	if days <= 0 {
		logger.Info("Retention disabled")
		return nil
	}
	job := NewRetentionJob(pruner, days, logger)
	return scheduler.AddJob(RetentionJobName, cronExpr, job.Run)
}
