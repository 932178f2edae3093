package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/seatemp/sea-temperature/internal/service"
	"go.uber.org/zap"
)

type PointHandler struct {
	sstService *service.SSTService
	cfg        *config.SSTConfig
	logger     *zap.Logger
}

func NewPointHandler(sstService *service.SSTService, cfg *config.SSTConfig, logger *zap.Logger) *PointHandler {
	return &PointHandler{
		sstService: sstService,
		cfg:        cfg,
		logger:     logger,
	}
}

// GetPoint godoc
// @Summary Sea surface temperature around a point
// @Description Mean, min and max SST of all grid cells within radius_km of the point.
// @Description Missing tiles are fetched from the upstream on first use.
// @Tags SST
// @Produce json
// @Param lat query number true "Latitude" minimum(-90) maximum(90)
// @Param lon query number true "Longitude, wrapped to [-180, 180)" minimum(-360) maximum(360)
// @Param radius_km query number false "Search radius in km" default(3)
// @Param date query string false "Day (YYYY-MM-DD), defaults to yesterday UTC"
// @Success 200 {object} domain.PointTemperature
// @Failure 400 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Router /api/point [get]
func (h *PointHandler) GetPoint(w http.ResponseWriter, r *http.Request) {
	q, fieldErrors := h.parsePointQuery(r)
	if len(fieldErrors) > 0 {
		respondFieldErrors(w, fieldErrors)
		return
	}
	if err := validate.Struct(q); err != nil {
		respondValidationError(w, err)
		return
	}
	if q.RadiusKm > h.cfg.MaxRadiusKm {
		respondFieldErrors(w, map[string]string{
			"radius_km": fmt.Sprintf("Must be less than or equal to %g", h.cfg.MaxRadiusKm),
		})
		return
	}

	date, err := h.sstService.ResolveDate(q.Date)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	result, err := h.sstService.PointTemperature(r.Context(), date, q.Lat, q.Lon, q.RadiusKm)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *PointHandler) parsePointQuery(r *http.Request) (domain.PointQuery, map[string]string) {
	values := r.URL.Query()
	fieldErrors := make(map[string]string)

	parse := func(name string, required bool, def float64) float64 {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			if required {
				fieldErrors[name] = name + " is required"
			}
			return def
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fieldErrors[name] = "Must be a numeric value"
			return def
		}
		return v
	}

	return domain.PointQuery{
		Lat:      parse("lat", true, 0),
		Lon:      parse("lon", true, 0),
		RadiusKm: parse("radius_km", false, h.cfg.DefaultRadiusKm),
		Date:     strings.TrimSpace(values.Get("date")),
	}, fieldErrors
}

// ListTiles godoc
// @Summary List cached tiles
// @Tags SST
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD), defaults to yesterday UTC"
// @Success 200 {array} domain.TileDTO
// @Failure 400 {object} domain.APIError
// @Router /api/tiles [get]
func (h *PointHandler) ListTiles(w http.ResponseWriter, r *http.Request) {
	date, err := h.sstService.ResolveDate(r.URL.Query().Get("date"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	tiles, err := h.sstService.ListTiles(r.Context(), date)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tiles)
}
