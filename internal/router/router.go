// Package router sets up all HTTP routes and middleware chains for the
// promptlib API. Reads are open; writes to the admin settings require the
// admin token.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"promptlib/internal/handlers"
	"promptlib/internal/middleware"
)

// Deps bundles everything the routes need.
type Deps struct {
	Settings  *handlers.Settings
	Invite    *handlers.Invite
	Workflows *handlers.Workflows

	AdminTokenHash  string
	AdminTOTPSecret string

	// UploadLimiter throttles preview image uploads per client IP. Nil
	// disables throttling.
	UploadLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, outermost first.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Route("/admin/settings", func(r chi.Router) {
			r.Get("/", d.Settings.Get)
			r.With(
				d.Settings.RequireD1,
				middleware.RequireAdminToken(d.AdminTokenHash, d.AdminTOTPSecret),
			).Post("/", d.Settings.Update)
		})

		r.Post("/invite/verify", d.Invite.Verify)

		r.Route("/workflows", func(r chi.Router) {
			r.Post("/validate", d.Workflows.Validate)
			r.Post("/file", d.Workflows.ReadWorkflowFile)

			upload := r.With()
			if d.UploadLimiter != nil {
				upload = r.With(d.UploadLimiter.Middleware)
			}
			upload.Post("/images", d.Workflows.EncodeImage)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
