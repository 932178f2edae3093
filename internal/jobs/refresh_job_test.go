package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingRefresher struct {
	mu     sync.Mutex
	dates  []string
	report *domain.RefreshReport
	err    error
}

func (r *recordingRefresher) RefreshKnownTiles(ctx context.Context, date string) (*domain.RefreshReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dates = append(r.dates, date)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("refresh without deadline")
	}
	return r.report, r.err
}

func (r *recordingRefresher) calledWith() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dates...)
}

func TestRefreshJob_RunUsesYesterday(t *testing.T) {
	refresher := &recordingRefresher{report: &domain.RefreshReport{Tiles: 2, Fetched: 2}}
	job := NewRefreshJob(refresher, zap.NewNop(), time.Minute)
	job.now = func() time.Time { return time.Date(2024, 7, 2, 2, 30, 0, 0, time.UTC) }

	job.Run()

	assert.Equal(t, []string{"2024-07-01"}, refresher.calledWith())
}

func TestRefreshJob_RunForDateReturnsReportOnFailure(t *testing.T) {
	report := &domain.RefreshReport{Date: "2024-07-01", Tiles: 3, Failed: 1}
	refresher := &recordingRefresher{report: report, err: errors.New("1 of 3 tiles failed")}
	job := NewRefreshJob(refresher, zap.NewNop(), time.Minute)

	got, err := job.RunForDate("2024-07-01")

	assert.Error(t, err)
	assert.Same(t, report, got)
}

func TestRegisterRefreshJob(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	refresher := &recordingRefresher{report: &domain.RefreshReport{}}

	require.NoError(t, RegisterRefreshJob(s, refresher, zap.NewNop(), "0 30 2 * * *", time.Minute, true))
	assert.Equal(t, []string{RefreshJobName}, s.GetJobNames())

	// the startup run happens in the background
	assert.Eventually(t, func() bool { return len(refresher.calledWith()) == 1 }, time.Second, 10*time.Millisecond)

	err := RegisterRefreshJob(s, refresher, zap.NewNop(), "0 30 2 * * *", time.Minute, false)
	assert.Error(t, err)
}
