// Package copernicus fetches daily sea surface temperature grids for a single
// cache tile from a griddap-compatible JSON endpoint.
package copernicus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/seatemp/sea-temperature/internal/geo"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	defaultVariable    = "analysed_sst"
	kelvinOffset       = 273.15
	retryBaseDelay     = 500 * time.Millisecond
	retryMaxDelay      = 10 * time.Second
	maxPayloadBytes    = 64 << 20
	dateLayout         = "2006-01-02"
	griddapTimeLiteral = "%sT00:00:00Z"
)

var (
	// ErrMissingCredentials is returned when username or password is not configured
	ErrMissingCredentials = errors.New("copernicus credentials not set")

	// ErrNoData is returned when the upstream has no grid for the requested day
	ErrNoData = errors.New("no SST data for requested date")
)

// sstVariables are tried in order when picking the data column
var sstVariables = []string{"analysed_sst", "sea_surface_temperature", "sst"}

// coordinateColumns are never treated as the data variable
var coordinateColumns = map[string]bool{
	"time": true, "latitude": true, "longitude": true, "lat": true, "lon": true,
}

// TileData is a fetched tile grid
type TileData struct {
	// SourceDate is the day the grid was taken from; it differs from the
	// requested day when the previous-day fallback was used
	SourceDate string
	Variable   string
	Units      string
	Cells      []domain.GridCell
	// Raw is the upstream payload, kept for archiving
	Raw []byte
}

// Client talks to the upstream SST service
type Client struct {
	cfg        *config.CopernicusConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new upstream client
func NewClient(cfg *config.CopernicusConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeoutDuration()},
		logger:     logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// CheckCredentials fails fast when the upstream credentials are missing
func (c *Client) CheckCredentials() error {
	if !c.cfg.HasCredentials() {
		return ErrMissingCredentials
	}
	return nil
}

// FetchTile downloads every valid grid cell of tileID for date. On any failure
// the previous day is tried once, since the upstream publishes with one to two
// days of latency.
func (c *Client) FetchTile(ctx context.Context, tileID, date string) (*TileData, error) {
	bbox, err := geo.TileBBox(tileID)
	if err != nil {
		return nil, err
	}

	data, err := c.fetchDay(ctx, bbox, date)
	if err == nil {
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	day, perr := time.Parse(dateLayout, date)
	if perr != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, perr)
	}
	fallbackDate := day.AddDate(0, 0, -1).Format(dateLayout)

	c.logger.Warn("Copernicus fetch failed, retrying with previous day",
		zap.String("tile_id", tileID),
		zap.String("date", date),
		zap.String("fallback_date", fallbackDate),
		zap.Error(err),
	)

	data, err2 := c.fetchDay(ctx, bbox, fallbackDate)
	if err2 != nil {
		c.logger.Error("Copernicus fallback also failed",
			zap.String("tile_id", tileID),
			zap.String("fallback_date", fallbackDate),
			zap.Error(err2),
		)
		return nil, fmt.Errorf("fetch tile %s for %s: %w", tileID, fallbackDate, err2)
	}
	return data, nil
}

func (c *Client) fetchDay(ctx context.Context, bbox geo.BBox, date string) (*TileData, error) {
	reqURL := c.BuildURL(bbox, date)

	var payload []byte
	backoff := retry.WithCappedDuration(retryMaxDelay,
		retry.WithMaxRetries(uint64(max(c.cfg.MaxRetries, 0)), retry.NewExponential(retryBaseDelay)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		body, err := c.get(ctx, reqURL)
		if err != nil {
			return err
		}
		payload = body
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, err := ParseGriddap(payload, c.cfg.Variable)
	if err != nil {
		return nil, err
	}
	data.SourceDate = date
	data.Raw = payload
	return data, nil
}

// get performs one request; network errors and 5xx/429 responses are retryable
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if c.cfg.HasCredentials() {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("upstream request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("failed to read upstream response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoData
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, retry.RetryableError(fmt.Errorf("upstream returned %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
}

// BuildURL renders the griddap query for one day of a tile box
func (c *Client) BuildURL(bbox geo.BBox, date string) string {
	minLon, maxLon := bbox.MinLon, bbox.MaxLon
	if c.cfg.Lon360 {
		minLon = geo.WrapLon360(minLon)
		maxLon = geo.WrapLon360(maxLon)
		// a tile touching 0/360 would otherwise produce an empty range
		if maxLon < minLon {
			maxLon += 360
		}
	}

	variable := c.cfg.Variable
	if variable == "" {
		variable = defaultVariable
	}

	t := fmt.Sprintf(griddapTimeLiteral, date)
	query := fmt.Sprintf("%s[(%s)][(%g):1:(%g)][(%g):1:(%g)]",
		variable, t, bbox.MinLat, bbox.MaxLat, minLon, maxLon)

	return fmt.Sprintf("%s/griddap/%s.json?%s",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(c.cfg.DatasetID),
		url.QueryEscape(query))
}

type griddapResponse struct {
	Table struct {
		ColumnNames []string        `json:"columnNames"`
		ColumnUnits []string        `json:"columnUnits"`
		Rows        [][]interface{} `json:"rows"`
	} `json:"table"`
}

// ParseGriddap decodes a griddap JSON table into Celsius grid cells.
// Masked (null) cells are skipped and longitudes are wrapped to [-180, 180).
func ParseGriddap(payload []byte, variable string) (*TileData, error) {
	var resp griddapResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode upstream payload: %w", err)
	}

	names := resp.Table.ColumnNames
	latIdx := indexOf(names, "latitude", "lat")
	lonIdx := indexOf(names, "longitude", "lon")
	if latIdx < 0 || lonIdx < 0 {
		return nil, fmt.Errorf("upstream payload has no latitude/longitude columns: %v", names)
	}

	varIdx := PickVariable(names, variable)
	if varIdx < 0 {
		return nil, fmt.Errorf("upstream payload has no data variable: %v", names)
	}

	units := ""
	if varIdx < len(resp.Table.ColumnUnits) {
		units = resp.Table.ColumnUnits[varIdx]
	}
	convert := IsKelvin(units)

	cells := make([]domain.GridCell, 0, len(resp.Table.Rows))
	for _, row := range resp.Table.Rows {
		if len(row) <= varIdx || len(row) <= latIdx || len(row) <= lonIdx {
			continue
		}
		v, ok := row[varIdx].(float64)
		if !ok || math.IsNaN(v) {
			continue
		}
		lat, ok1 := row[latIdx].(float64)
		lon, ok2 := row[lonIdx].(float64)
		if !ok1 || !ok2 {
			continue
		}
		if convert {
			v -= kelvinOffset
		}
		cells = append(cells, domain.GridCell{
			Lat:   lat,
			Lon:   geo.WrapLon180(lon),
			TempC: v,
		})
	}

	return &TileData{
		Variable: names[varIdx],
		Units:    units,
		Cells:    cells,
	}, nil
}

// PickVariable returns the column index of the SST variable: the forced name if
// present, else the first known SST name, else the first non-coordinate column
func PickVariable(columns []string, forced string) int {
	if forced != "" {
		if i := indexOf(columns, forced); i >= 0 {
			return i
		}
	}
	for _, cand := range sstVariables {
		if i := indexOf(columns, cand); i >= 0 {
			return i
		}
	}
	for i, name := range columns {
		if !coordinateColumns[strings.ToLower(name)] {
			return i
		}
	}
	return -1
}

// IsKelvin reports whether a units string denotes Kelvin
func IsKelvin(units string) bool {
	u := strings.ToLower(units)
	return u != "" && strings.Contains(u, "k")
}

func indexOf(names []string, candidates ...string) int {
	for i, n := range names {
		for _, c := range candidates {
			if strings.EqualFold(n, c) {
				return i
			}
		}
	}
	return -1
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
