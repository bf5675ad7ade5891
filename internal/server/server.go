package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/agbru/taskcoord/internal/logging"
	"github.com/agbru/taskcoord/internal/metrics"
	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/statebus"
)

// Server timeouts. WriteTimeout stays zero so event streams are not cut.
const (
	DefaultShutdownTimeout = 5 * time.Second
	ReadHeaderTimeout      = 5 * time.Second
	IdleTimeout            = 60 * time.Second
)

// Controller is the part of the coordinator exposed over HTTP.
type Controller interface {
	StartLongRunningTask() error
	CancelLongRunningTask()
	ClearText()
	FetchData() error
	TaskID() (uuid.UUID, bool)
}

var _ Controller = (*orchestration.Coordinator)(nil)

// Server is the HTTP control surface of the coordinator.
type Server struct {
	addr            string
	ctrl            Controller
	bus             *statebus.Bus
	metrics         *metrics.Collector
	logger          logging.Logger
	security        SecurityConfig
	shutdownTimeout time.Duration
	keepAlive       time.Duration
	streams         atomic.Int64
	router          chi.Router
	httpServer      *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address used by Start.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSecurityConfig replaces DefaultSecurityConfig.
func WithSecurityConfig(c SecurityConfig) Option {
	return func(s *Server) { s.security = c }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithKeepAlive sets the comment interval on idle event streams.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.keepAlive = d
		}
	}
}

// New creates a server. A nil collector gets a private one.
func New(ctrl Controller, bus *statebus.Bus, m *metrics.Collector, opts ...Option) *Server {
	if m == nil {
		m = metrics.NewCollector(bus)
	}
	s := &Server{
		addr:            "127.0.0.1:8080",
		ctrl:            ctrl,
		bus:             bus,
		metrics:         m,
		logger:          logging.NopLogger{},
		security:        DefaultSecurityConfig(),
		shutdownTimeout: DefaultShutdownTimeout,
		keepAlive:       15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: ReadHeaderTimeout,
		IdleTimeout:       IdleTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHandler(s.security))
	r.Use(func(next http.Handler) http.Handler { return s.metricsMiddleware(next.ServeHTTP) })

	r.Post("/task/start", s.handleStart)
	r.Post("/task/cancel", s.handleCancel)
	r.Get("/task", s.handleTask)
	r.Post("/text/clear", s.handleClear)
	r.Post("/fetch", s.handleFetch)
	r.Get("/events", s.handleEvents)
	r.HandleFunc("/metrics", s.handleMetrics)
	r.Get("/healthz", s.handleHealth)
	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
// Request contexts derive from ctx so event streams end with it.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }
	s.logger.Info("server listening", logging.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	return nil
}
