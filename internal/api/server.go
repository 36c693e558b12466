package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/irrigation-relay/internal/audit"
	"github.com/nerrad567/irrigation-relay/internal/event"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/config"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/logging"
	"github.com/nerrad567/irrigation-relay/internal/notify"
	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Registry is the subset of the identity registry the HTTP surface reads.
type Registry interface {
	LookupEndpoint(ctx context.Context, code registry.DeviceCode) (registry.OperatorID, error)
	Count(ctx context.Context) (int, error)
}

// Dispatcher delivers decoded sensor reports to their operators.
type Dispatcher interface {
	DeliverReport(ctx context.Context, report event.SensorReport) notify.Result
}

// BusStatus reports message bus connectivity for the system snapshot.
type BusStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Ingress    string
	Logger     *logging.Logger
	Registry   Registry
	Dispatcher Dispatcher
	Metrics    http.Handler     // optional; /metrics is not mounted when nil
	Bus        BusStatus        // optional
	Audit      audit.Repository // optional; /audit is not mounted when nil
	Version    string
}

// Server is the HTTP server for the irrigation relay.
//
// It manages the HTTP listener, routes and middleware.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	ingress    string
	logger     *logging.Logger
	registry   Registry
	dispatcher Dispatcher
	metrics    http.Handler
	bus        BusStatus
	audit      audit.Repository
	version    string
	startTime  time.Time
	server     *http.Server
	listener   net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if deps.Ingress == config.IngressHTTP && deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required for http ingress")
	}

	return &Server{
		cfg:        deps.Config,
		ingress:    deps.Ingress,
		logger:     deps.Logger,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		bus:        deps.Bus,
		audit:      deps.Audit,
		version:    deps.Version,
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener is bound synchronously so that address errors surface here;
// serving continues in a background goroutine until Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	s.logger.Info("API server starting", "address", ln.Addr().String(), "ingress", s.ingress)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// HealthCheck verifies the API server is running and responsive.
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
