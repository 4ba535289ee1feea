package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/sessiond/internal/logger"
	"github.com/marmos91/sessiond/pkg/api/auth"
	"github.com/marmos91/sessiond/pkg/api/handlers"
	apiMiddleware "github.com/marmos91/sessiond/pkg/api/middleware"
	"github.com/marmos91/sessiond/pkg/journal"
)

// NewRouter creates the chi router with all admin routes.
//
// Routes:
//   - GET /health, GET /health/ready
//   - GET /api/v1/server
//   - GET, DELETE /api/v1/sessions
//   - GET /api/v1/sessions/history
//   - GET, DELETE /api/v1/sessions/{id}
//
// jwtService may be nil, in which case /api/v1 is unauthenticated.
func NewRouter(backend handlers.Backend, history journal.Store, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	health := handlers.NewHealthHandler(backend)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	sessions := handlers.NewSessionHandler(backend, history)
	r.Route("/api/v1", func(r chi.Router) {
		if jwtService != nil {
			r.Use(apiMiddleware.JWTAuth(jwtService))
		}

		r.Get("/server", sessions.Server)
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessions.List)
			r.Delete("/", sessions.DisconnectAll)
			r.Get("/history", sessions.History)
			r.Get("/{id}", sessions.Get)
			r.Delete("/{id}", sessions.Disconnect)
		})
	})

	return r
}

// requestLogger logs each request; health checks log at DEBUG.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		args := []any{
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(time.Since(start)),
		}
		if strings.HasPrefix(r.URL.Path, "/health") {
			logger.Debug("API request", args...)
			return
		}
		logger.Info("API request", args...)
	})
}
