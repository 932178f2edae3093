package handler_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/copernicus"
	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/seatemp/sea-temperature/internal/repository"
	"github.com/seatemp/sea-temperature/internal/service"
	"github.com/seatemp/sea-temperature/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubFetcher serves fixed cells per tile and fails the tiles listed in fail.
// delay slows every fetch; block holds fetches until the context is done.
type stubFetcher struct {
	mu    sync.Mutex
	cells map[string][]domain.GridCell
	fail  map[string]error
	calls int
	delay time.Duration
	block bool
}

func (f *stubFetcher) FetchTile(ctx context.Context, tileID, date string) (*copernicus.TileData, error) {
	f.mu.Lock()
	f.calls++
	err := f.fail[tileID]
	cells := f.cells[tileID]
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err != nil {
		return nil, err
	}
	return &copernicus.TileData{SourceDate: date, Cells: cells}, nil
}

func testSSTConfig() *config.SSTConfig {
	return &config.SSTConfig{
		DefaultRadiusKm:    3,
		MaxRadiusKm:        100,
		MaxTilesPerRequest: 6,
		RefreshConcurrency: 2,
	}
}

func newTestService(t *testing.T, fetcher *stubFetcher) *service.SSTService {
	t.Helper()
	if fetcher.cells == nil {
		fetcher.cells = make(map[string][]domain.GridCell)
	}
	if fetcher.fail == nil {
		fetcher.fail = make(map[string]error)
	}
	db := testutil.SetupTestDB(t)
	return service.NewSSTService(repository.NewTileRepository(db), fetcher, testSSTConfig(), zap.NewNop())
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}
