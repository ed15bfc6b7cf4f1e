package handlers

import (
	"net/http"
	"time"
)

const (
	serviceName    = "Ink Synthesis API"
	serviceVersion = "0.1.0"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	env := "development"
	if a.Config != nil && a.Config.AppEnv != "" {
		env = a.Config.AppEnv
	}
	a.json(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"timestamp":   a.now().UTC().Format(time.RFC3339Nano),
		"uptime":      a.now().Sub(a.started).Seconds(),
		"environment": env,
	})
}

func (a *App) APIInfo(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"name":        serviceName,
		"version":     serviceVersion,
		"description": "Backend API for AI-Driven Tattoo Generation",
	})
}

// Designs lists the showcase catalog.
func (a *App) Designs(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"designs": a.Catalog.Designs()})
}

// DesignsGenerate is reserved for real generation.
func (a *App) DesignsGenerate(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusNotImplemented, "Not implemented", "AI generation endpoint - coming soon")
}

func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusNotFound, "Not Found", "The requested resource does not exist")
}

func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusMethodNotAllowed, "Method Not Allowed", "The requested method is not supported for this resource")
}
