package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/geo"
	"go.uber.org/zap"
)

// pages maps a page name to its template file
var pages = map[string]string{
	"landing": "templates/landing.html",
	"map":     "templates/map_click.html",
	"about":   "templates/about.html",
}

type pageData struct {
	AppName         string
	Title           string
	Page            string
	DataDate        string
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	TileDeg         float64
}

// PageHandler renders the embedded HTML pages
type PageHandler struct {
	templates map[string]*template.Template
	appName   string
	sst       *config.SSTConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewPageHandler parses every page against the shared base layout
func NewPageHandler(files fs.FS, appName string, sst *config.SSTConfig, logger *zap.Logger) (*PageHandler, error) {
	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		tmpl, err := template.ParseFS(files, "templates/base.html", file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}
		templates[name] = tmpl
	}

	return &PageHandler{
		templates: templates,
		appName:   appName,
		sst:       sst,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, "landing", "Sea temperature")
}

func (h *PageHandler) Map(w http.ResponseWriter, r *http.Request) {
	h.render(w, "map", "Map")
}

func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, "about", "About")
}

func (h *PageHandler) render(w http.ResponseWriter, page, title string) {
	data := pageData{
		AppName:         h.appName,
		Title:           title,
		Page:            page,
		DataDate:        h.now().UTC().AddDate(0, 0, -1).Format("2006-01-02"),
		DefaultRadiusKm: h.sst.DefaultRadiusKm,
		MaxRadiusKm:     h.sst.MaxRadiusKm,
		TileDeg:         geo.TileDeg,
	}

	// buffered so a failed execute does not emit a partial page
	var buf bytes.Buffer
	if err := h.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		h.logger.Error("Failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
