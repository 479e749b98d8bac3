// Package server provides the HTTP server for the mudra gesture runtime.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Pinger reports whether the runtime's dependencies are reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the server configuration. Every collaborator is optional; the
// routes that need a missing one are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Logger    zerolog.Logger
	Metrics   *metrics.Collector
	Hub       *Hub
	Health    Pinger
	Reloader  api.Reloader
	Hands     api.HandSource
	Plugins   PluginCatalog
}

// PluginCatalog is the plugin manager as seen by the API.
type PluginCatalog interface {
	api.PluginLookup
	api.PluginLister
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	router chi.Router
	logger zerolog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		logger: config.Logger.With().Str("component", "http").Logger(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/api/health", s.handleHealth)

	if s.config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.config.Metrics.Handler())
	}
	if s.config.Hub != nil {
		r.Method(http.MethodGet, "/api/events", s.config.Hub)
	}

	if s.config.Store != nil {
		templates := api.NewTemplateHandler(s.config.Store, s.config.Reloader, s.config.Logger)
		samples := api.NewSamplesHandler(api.SamplesConfig{
			Store:    s.config.Store,
			Reloader: s.config.Reloader,
			Hands:    s.config.Hands,
			Logger:   s.config.Logger,
		})
		actions := api.NewActionHandler(s.config.Store, s.config.Plugins, s.config.Logger)

		r.Mount("/api/templates/{id}/samples", samples.Routes())
		r.Mount("/api/templates", templates.Routes())
		r.Mount("/api/actions", actions.Routes())
		r.Mount("/api/recordings", api.NewRecordingHandler(s.config.Store).Routes())
	}

	if s.config.Plugins != nil {
		r.Get("/api/plugins", api.ListPlugins(s.config.Plugins))
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// logRequests logs each request at debug level, and server errors at warn.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)

		event := s.logger.Debug()
		if ww.Status() >= http.StatusInternalServerError {
			event = s.logger.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(started)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	status := http.StatusOK

	if s.config.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.config.Health.Ping(ctx); err != nil {
			response["status"] = "degraded"
			response["error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode health response")
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
