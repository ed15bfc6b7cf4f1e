package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"inksynth/internal/catalog"
	"inksynth/internal/domain"
)

const maxPopularLimit = 50

// DemoDesigns lists catalog designs, optionally filtered by ?style=.
func (a *App) DemoDesigns(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("style")
	if raw == "" {
		a.ok(w, http.StatusOK, a.Catalog.Designs())
		return
	}
	style, err := domain.ParseStyle(raw)
	if err != nil {
		a.fail(w, http.StatusBadRequest, "Unknown style.")
		return
	}
	a.ok(w, http.StatusOK, a.Catalog.DesignsByStyle(style))
}

// DemoPopularDesigns returns the most popular designs, ?limit= defaulting to 6.
func (a *App) DemoPopularDesigns(w http.ResponseWriter, r *http.Request) {
	limit := catalog.DefaultPopularLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPopularLimit {
			a.fail(w, http.StatusBadRequest, "limit must be between 1 and 50.")
			return
		}
		limit = n
	}
	a.ok(w, http.StatusOK, a.Catalog.PopularDesigns(limit))
}

func (a *App) DemoDesign(w http.ResponseWriter, r *http.Request) {
	d, ok := a.Catalog.DesignByID(chi.URLParam(r, "designID"))
	if !ok {
		a.fail(w, http.StatusNotFound, "Design not found.")
		return
	}
	a.ok(w, http.StatusOK, d)
}

func (a *App) DemoStyles(w http.ResponseWriter, r *http.Request) {
	a.ok(w, http.StatusOK, a.Catalog.StylePresets())
}

func (a *App) DemoStyle(w http.ResponseWriter, r *http.Request) {
	style, err := domain.ParseStyle(chi.URLParam(r, "style"))
	if err != nil {
		a.fail(w, http.StatusNotFound, "Style not found.")
		return
	}
	preset, ok := a.Catalog.StylePreset(style)
	if !ok {
		a.fail(w, http.StatusNotFound, "Style not found.")
		return
	}
	a.ok(w, http.StatusOK, preset)
}

func (a *App) DemoCalibrationPresets(w http.ResponseWriter, r *http.Request) {
	a.ok(w, http.StatusOK, a.Catalog.CalibrationPresets())
}

func (a *App) DemoCollections(w http.ResponseWriter, r *http.Request) {
	a.ok(w, http.StatusOK, a.Catalog.Collections())
}
