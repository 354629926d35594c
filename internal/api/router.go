package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/solarpool-core/internal/webui"
)

// healthCheckTimeout bounds the dependency checks behind /api/health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	// Admin page
	ui := webui.Handler(s.cfg.WebDir)
	r.Get("/", ui.ServeHTTP)
	r.Get("/index.html", ui.ServeHTTP)
	r.Get("/styles.css", ui.ServeHTTP)
	r.Get("/app.js", ui.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.bodySizeLimitMiddleware(maxRequestBodySize))

			r.Get("/health", s.handleHealth)

			// Provisioning and login (no session required)
			r.Get("/provisioning", s.handleGetProvisioning)
			r.Post("/provisioning", s.handleProvision)
			r.Post("/login", s.handleLogin)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(s.sessionMiddleware)

				r.Post("/logout", s.handleLogout)

				r.Get("/status", s.handleStatus)
				r.Post("/relay", s.handleRelay)
				r.Get("/defaults", s.handleGetDefaults)
				r.Post("/defaults", s.handleSetDefaults)
				r.Get("/probes", s.handleProbes)

				r.Get("/wifi/scan", s.handleWiFiScan)
				r.Post("/wifi", s.handleWiFiSave)

				r.Post("/admin/reboot", s.handleReboot)
				r.Post("/admin/factory-reset", s.handleFactoryReset)
				r.Post("/admin/password", s.handleChangePassword)
				r.Get("/admin/audit", s.handleListAuditLogs)
			})
		})

		// Firmware images are larger than any JSON body.
		r.Group(func(r chi.Router) {
			r.Use(s.bodySizeLimitMiddleware(s.maxFirmware + 1))
			r.Use(s.sessionMiddleware)
			r.Post("/admin/firmware", s.handleFirmwareUpload)
		})
	})

	return r
}

// handleHealth reports liveness and, when configured, database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.db.HealthCheck(ctx); err != nil {
			s.logger.Warn("database health check failed", "error", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
	})
}
