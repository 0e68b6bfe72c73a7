package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vpatch/pkg/metrics"
	"github.com/vango-dev/vpatch/pkg/middleware"
	"github.com/vango-dev/vpatch/pkg/render"
	"github.com/vango-dev/vpatch/pkg/session"
)

// Server is the HTTP/WebSocket front of the engine.
type Server struct {
	config   *Config
	sessions *session.Manager
	router   chi.Router
	upgrader websocket.Upgrader
	renderer *render.Renderer

	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	tracerProvider trace.TracerProvider

	connsMu sync.Mutex
	conns   map[*wsConn]struct{}

	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics records request metrics in m and exposes g on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithTracerProvider traces requests with tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// New creates a Server serving the sessions held by sessions.
func New(config *Config, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		config:   config.withDefaults(),
		sessions: sessions,
		renderer: render.NewRenderer(render.RendererConfig{}),
		conns:    make(map[*wsConn]struct{}),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  s.config.ReadBufferSize,
		WriteBufferSize: s.config.WriteBufferSize,
		CheckOrigin:     s.config.CheckOrigin,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recover(s.logger))
	if s.tracerProvider != nil {
		r.Use(middleware.OpenTelemetry(
			middleware.WithTracerProvider(s.tracerProvider),
			middleware.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
		))
	}
	if s.metrics != nil {
		r.Use(middleware.Metrics(s.metrics))
	}
	r.Use(middleware.Logger(s.logger))

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/diff", s.handleDiff)
		r.Post("/render", s.handleRender)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Put("/{id}", s.handleSessionRender)
		r.Get("/{id}/html", s.handleSessionHTML)
		r.Delete("/{id}", s.handleCloseSession)
	})

	r.Get("/ws", s.handleWebSocket)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Config returns the effective server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully. The session sweeper runs alongside.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes every connection and session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeConns()
	if err := s.sessions.Shutdown(ctx); err != nil {
		s.logger.Warn("session shutdown", "error", err)
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// writeDeadline returns the deadline for one WebSocket write.
func (s *Server) writeDeadline() time.Time {
	return time.Now().Add(s.config.WriteTimeout)
}
