package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"inksynth/internal/http/handlers"
	"inksynth/internal/middleware"
)

// Options carries the cross-cutting pieces the router wires in front of
// the handlers.
type Options struct {
	Verifier      middleware.SessionVerifier
	CountryLookup middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	cfg := app.Config
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.I18N(cfg.DefaultLocale, opts.CountryLookup),
		middleware.Logger(app.Logger),
		middleware.Recoverer(cfg.IsProduction()),
		middleware.SecureHeaders(cfg.IsProduction()),
		middleware.CORS(cfg.CORSOrigins),
		chimw.CleanPath,
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		middleware.Authenticate(opts.Verifier),
	)
	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	r.Get("/health", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", app.APIInfo)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Get("/designs", app.Designs)
		r.Post("/designs/generate", app.DesignsGenerate)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", app.ProfileGet)
			r.Post("/", app.ProfileSave)
			r.Get("/roles", app.ProfileRoles)
		})

		r.Route("/demo", func(r chi.Router) {
			r.Get("/designs", app.DemoDesigns)
			r.Get("/designs/popular", app.DemoPopularDesigns)
			r.Get("/designs/{designID}", app.DemoDesign)
			r.Get("/styles", app.DemoStyles)
			r.Get("/styles/{style}", app.DemoStyle)
			r.Get("/calibration-presets", app.DemoCalibrationPresets)
			r.Get("/collections", app.DemoCollections)

			r.Post("/sessions", app.DemoSessionCreate)
			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Use(app.LoadDemoSession)
				r.Get("/", app.DemoSessionGet)
				r.Delete("/", app.DemoSessionDelete)
				r.Put("/style", app.DemoSetStyle)
				r.Put("/selected-design", app.DemoSelectDesign)
				r.Delete("/selected-design", app.DemoClearDesign)

				r.Post("/generations", app.DemoGenerate)
				r.Get("/generations", app.DemoGenerations)
				r.Delete("/generations", app.DemoClearGenerations)
				r.Get("/generations/export", app.DemoExportGenerations)

				r.Route("/machine", func(r chi.Router) {
					r.Get("/", app.DemoMachine)
					r.Patch("/settings", app.DemoUpdateSettings)
					r.Get("/settings/stream", app.DemoSettingsStream)
					r.Post("/presets/{presetID}", app.DemoApplyPreset)
					r.Post("/printing/toggle", app.DemoTogglePrinting)
					r.Get("/link", app.DemoMachineLink)
				})
			})
		})
	})

	return r
}
