package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"inksynth/internal/catalog"
	"inksynth/internal/demo"
	"inksynth/internal/domain"
	"inksynth/internal/infra"
	"inksynth/internal/middleware"
)

const maxBodyBytes = 64 << 10

// Client-facing messages.
const (
	msgUnauthorized    = "Unauthorized"
	msgDemoMode        = "Demo mode enabled."
	msgInvalidPayload  = "Invalid payload."
	msgLoadFailed      = "Unable to load profile."
	msgSaveFailed      = "Unable to save profile."
	msgSessionNotFound = "Demo session not found."
)

// App carries the dependencies shared by every handler.
type App struct {
	Config   *infra.Config
	Logger   zerolog.Logger
	Users    domain.UserDirectory
	Catalog  *catalog.Catalog
	Sessions *demo.Registry

	started time.Time
	now     func() time.Time
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, users domain.UserDirectory, cat *catalog.Catalog, sessions *demo.Registry) *App {
	if cat == nil {
		cat = catalog.Default()
	}
	return &App{
		Config:   cfg,
		Logger:   logger,
		Users:    users,
		Catalog:  cat,
		Sessions: sessions,
		started:  time.Now(),
		now:      time.Now,
	}
}

// envelope is the {success, data?, error?} body of the JSON API.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) ok(w http.ResponseWriter, code int, data any) {
	a.json(w, code, envelope{Success: true, Data: data})
}

func (a *App) fail(w http.ResponseWriter, code int, message string) {
	a.json(w, code, envelope{Success: false, Error: message})
}

// error renders the {error, message} body used by the service routes.
func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) demoMode() bool {
	return a.Config != nil && a.Config.DemoMode
}

func (a *App) production() bool {
	return a.Config != nil && a.Config.IsProduction()
}

// log returns the request logger installed by middleware.Logger, falling
// back to the application logger.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

// readBody reads a bounded request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return body, nil
}

// decodeJSON decodes a bounded JSON object into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}

// status maps domain errors to HTTP codes.
func status(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrUnknownStyle),
		errors.Is(err, domain.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrDemoMode):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
