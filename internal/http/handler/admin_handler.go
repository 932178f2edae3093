package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/seatemp/sea-temperature/internal/service"
	"go.uber.org/zap"
)

// reportWriteSlack is the time left for writing the report after a run hits its timeout
const reportWriteSlack = 30 * time.Second

// AdminHandler exposes the maintenance operations behind the API key guard
type AdminHandler struct {
	sstService *service.SSTService
	preload    domain.Region
	timeout    time.Duration
	logger     *zap.Logger
}

func NewAdminHandler(sstService *service.SSTService, preload domain.Region, timeout time.Duration, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		sstService: sstService,
		preload:    preload,
		timeout:    timeout,
		logger:     logger,
	}
}

// Refresh godoc
// @Summary Refresh all known tiles
// @Description Ensures every tile id seen so far is cached for the day. Runs synchronously.
// @Tags Admin
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD), defaults to yesterday UTC"
// @Success 200 {object} domain.RefreshReport
// @Failure 502 {object} domain.RefreshReport "Some tiles failed"
// @Failure 401 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /api/admin/refresh [post]
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	date, err := h.sstService.ResolveDate(r.URL.Query().Get("date"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	ctx, cancel := h.detached(w, r)
	defer cancel()

	report, err := h.sstService.RefreshKnownTiles(ctx, date)
	h.respondReport(w, report, err)
}

// Preload godoc
// @Summary Preload a region
// @Description Ensures every tile covering the region is cached. Without a body the configured default region is used.
// @Tags Admin
// @Accept json
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD), defaults to yesterday UTC"
// @Param region body domain.Region false "Region"
// @Success 200 {object} domain.RefreshReport
// @Failure 400 {object} domain.APIError
// @Failure 502 {object} domain.RefreshReport "Some tiles failed"
// @Security ApiKeyAuth
// @Router /api/admin/preload [post]
func (h *AdminHandler) Preload(w http.ResponseWriter, r *http.Request) {
	date, err := h.sstService.ResolveDate(r.URL.Query().Get("date"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	region := h.preload
	if r.Body != nil {
		err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&region)
		if err != nil && !errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	if err := validate.Struct(region); err != nil {
		respondValidationError(w, err)
		return
	}

	ctx, cancel := h.detached(w, r)
	defer cancel()

	report, err := h.sstService.PreloadRegion(ctx, date, region)
	h.respondReport(w, report, err)
}

// detached keeps the run alive if the client disconnects, bounded by the
// refresh timeout. The connection write deadline is pushed past that bound so
// the report still reaches the client when the run outlasts server.writeTimeout.
func (h *AdminHandler) detached(w http.ResponseWriter, r *http.Request) (context.Context, context.CancelFunc) {
	deadline := time.Now().Add(h.timeout + reportWriteSlack)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("Failed to extend write deadline", zap.Error(err))
	}
	return context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
}

func (h *AdminHandler) respondReport(w http.ResponseWriter, report *domain.RefreshReport, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, report)
	case errors.Is(err, service.ErrRefreshIncomplete) && report != nil:
		respondJSON(w, http.StatusBadGateway, report)
	default:
		respondServiceError(w, h.logger, err)
	}
}
