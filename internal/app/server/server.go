package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"beacon/internal/app/server/handlers"
	"beacon/internal/config"
	"beacon/internal/core/contracts"
	"beacon/internal/core/services"
	"beacon/internal/platform/metrics"
	"beacon/pkg/middleware"
)

// Deps carries everything the HTTP surface needs. TokenSvc may be nil, which
// leaves every route open.
type Deps struct {
	Items         *handlers.ItemHandler
	WS            *handlers.WSHandler
	Notifications *handlers.NotificationHandler
	Health        *handlers.HealthHandler
	TokenSvc      *services.TokenService
	Limiter       contracts.Limiter
	Metrics       *metrics.Metrics
}

type Server struct {
	mux  *http.ServeMux
	srv  *http.Server
	cfg  config.ServerConfig
	deps Deps
	log  *slog.Logger
}

func NewServer(cfg config.ServerConfig, deps Deps, log *slog.Logger) *Server {
	s := &Server{
		mux:  http.NewServeMux(),
		cfg:  cfg,
		deps: deps,
		log:  log,
	}
	s.routes()

	s.srv = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.handler(),
		ReadTimeout: cfg.ReadTimeout,
		// No WriteTimeout: it would kill long-lived websocket responses
		// before the hijack completes under load.
	}
	return s
}

func (s *Server) routes() {
	auth := middleware.AuthMiddleware(s.deps.TokenSvc)

	// Items CRUD
	s.mux.HandleFunc("GET /api/v1.0/items", s.deps.Items.List)
	s.mux.HandleFunc("GET /api/v1.0/items/{id}", s.deps.Items.Get)
	s.mux.Handle("POST /api/v1.0/items", auth(http.HandlerFunc(s.deps.Items.Create)))
	s.mux.Handle("PUT /api/v1.0/items/{id}", auth(http.HandlerFunc(s.deps.Items.Update)))
	s.mux.Handle("DELETE /api/v1.0/items/{id}", auth(http.HandlerFunc(s.deps.Items.Delete)))

	// Realtime endpoints
	s.mux.HandleFunc("GET /api/v1.0/ws/echo", s.deps.WS.Echo)
	s.mux.HandleFunc("GET /api/v1.0/ws/broadcast", s.deps.WS.Broadcast)
	s.mux.HandleFunc("GET /api/v1.0/ws/room/{room}", s.deps.WS.Room)
	s.mux.HandleFunc("GET /api/v1.0/ws/notifications", s.deps.WS.Notifications)

	// Notification publish
	s.mux.Handle("POST /api/v1.0/notifications/{topic}", auth(http.HandlerFunc(s.deps.Notifications.Publish)))

	// Probes
	s.mux.HandleFunc("GET /api/-/health", s.deps.Health.Health)
	s.mux.HandleFunc("GET /api/-/ready", s.deps.Health.Ready)
	s.mux.HandleFunc("GET /api/-/aliveness", s.deps.Health.Aliveness)

	s.mux.Handle("GET /metrics", s.deps.Metrics.Handler())
}

// handler wraps the mux with the ambient middleware stack. Probes and metrics
// are never rate limited.
func (s *Server) handler() http.Handler {
	var h http.Handler = s.mux
	h = middleware.RateLimit(s.deps.Limiter, "/api/-/", "/metrics")(h)
	h = middleware.HTTPMetrics(s.deps.Metrics)(h)
	h = middleware.TracerMiddleware("beacon")(h)
	h = middleware.RequestLogger(s.log)(h)
	return h
}

// Handler exposes the full middleware-wrapped handler, used by tests to mount
// the server on httptest.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Start() error {
	s.log.Info("server - starting", slog.String("addr", s.cfg.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests up to
// ctx's deadline. Hijacked websocket connections are not waited on; the
// registry closes those.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
