package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/device-inventory/internal/device"
	"github.com/nerrad567/device-inventory/internal/infrastructure/config"
	"github.com/nerrad567/device-inventory/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by components that can report their health,
// such as database.DB, mqtt.Client and influxdb.Client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PoolStatser exposes connection pool statistics.
type PoolStatser interface {
	Stats() sql.DBStats
}

// BreakerStater exposes the store circuit breaker state.
type BreakerStater interface {
	BreakerState() string
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Pagination config.PaginationConfig
	Logger     *logging.Logger
	Service    *device.Service
	Version    string

	// Database is checked by /health; a failure makes the service unavailable.
	Database HealthChecker

	// Components are optional dependencies (MQTT, InfluxDB) reported by
	// /health; a failure only degrades the service.
	Components map[string]HealthChecker

	// Pool and Breaker feed /metrics when set.
	Pool    PoolStatser
	Breaker BreakerStater
}

// Server is the HTTP API server for the device inventory.
//
// It manages the HTTP listener, routes and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	pagination config.PaginationConfig
	logger     *logging.Logger
	service    *device.Service
	version    string
	database   HealthChecker
	components map[string]HealthChecker
	pool       PoolStatser
	breaker    BreakerStater
	startTime  time.Time

	server   *http.Server
	listener net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, device service)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Service == nil {
		return nil, fmt.Errorf("device service is required")
	}

	pagination := deps.Pagination
	if pagination.DefaultSize <= 0 {
		pagination.DefaultSize = device.DefaultPageSize
	}
	if pagination.MaxSize <= 0 || pagination.MaxSize > device.MaxPageSize {
		pagination.MaxSize = device.MaxPageSize
	}

	return &Server{
		cfg:        deps.Config,
		pagination: pagination,
		logger:     deps.Logger,
		service:    deps.Service,
		version:    deps.Version,
		database:   deps.Database,
		components: deps.Components,
		pool:       deps.Pool,
		breaker:    deps.Breaker,
		startTime:  time.Now(),
	}, nil
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listen address and serves HTTP in a background goroutine.
//
// Parameters:
//   - ctx: Base context for request contexts
//
// Returns:
//   - error: If the address cannot be bound (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.Timeouts.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.Timeouts.ReadTimeout(),
		WriteTimeout:      s.cfg.Timeouts.WriteTimeout(),
		IdleTimeout:       s.cfg.Timeouts.IdleTimeout(),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("API server listening", "address", listener.Addr().String())

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
