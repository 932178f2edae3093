// Package jobs runs the periodic cache maintenance tasks (daily refresh and
// retention) on a robfig/cron scheduler with a seconds field.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler manages named cron jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	mu     sync.Mutex
	jobs   map[string]cron.EntryID
}

// NewScheduler creates a scheduler whose jobs never overlap themselves and
// whose panics are recovered and logged.
func NewScheduler(logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger: logger.Named("cron")}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(
				cron.SkipIfStillRunning(cl),
				cron.Recover(cl),
			),
		),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting job scheduler", zap.Strings("jobs", s.GetJobNames()))
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping job scheduler")
	return s.cron.Stop()
}

// AddJob schedules job under name. cronExpr takes six fields (seconds first)
// or a descriptor such as "@daily".
func (s *Scheduler) AddJob(name string, cronExpr string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		start := time.Now()
		s.logger.Info("Running scheduled job", zap.String("job_name", name))
		job()
		s.logger.Info("Completed scheduled job",
			zap.String("job_name", name),
			zap.Duration("duration", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info("Added scheduled job",
		zap.String("job_name", name),
		zap.String("cron_expr", cronExpr))
	return nil
}

// RemoveJob removes a job by name
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(entryID)
	delete(s.jobs, name)
	s.logger.Info("Removed scheduled job", zap.String("job_name", name))
	return nil
}

// GetJobNames returns the registered job names, sorted
func (s *Scheduler) GetJobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextRun returns the next activation time of a job. It is zero until the
// scheduler has been started.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	entryID, exists := s.jobs[name]
	s.mu.Unlock()
	if !exists {
		return time.Time{}, false
	}
	return s.cron.Entry(entryID).Next, true
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
