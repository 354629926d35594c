package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/solarpool-core/internal/audit"
	"github.com/nerrad567/solarpool-core/internal/auth"
	"github.com/nerrad567/solarpool-core/internal/controller"
	"github.com/nerrad567/solarpool-core/internal/infrastructure/config"
	"github.com/nerrad567/solarpool-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by components reported on /api/health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StatePublisher publishes retained state messages. *mqtt.Client satisfies it.
type StatePublisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// RelayWriter records relay transitions as time series. *influxdb.Client
// satisfies it.
type RelayWriter interface {
	WriteRelayState(on bool, at time.Time)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Firmware   config.FirmwareConfig
	Logger     *logging.Logger
	Auth       *auth.Store
	Controller *controller.State

	// Audit receives security events. Optional.
	Audit *audit.Recorder
	// AuditLog backs GET /api/admin/audit. Optional.
	AuditLog audit.Repository

	// DB is reported by the health endpoint. Optional.
	DB HealthChecker
	// Publisher receives relay state changes. Optional.
	Publisher StatePublisher
	// RelayWriter receives relay state changes. Optional.
	RelayWriter RelayWriter

	// OnReboot runs after the reboot response has been written. Optional.
	OnReboot func()

	Version string
}

// Server is the HTTP API server for the controller.
//
// It manages the HTTP listener, routes, and middleware.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	maxFirmware int64
	logger      *logging.Logger
	store       *auth.Store
	controller  *controller.State
	recorder    *audit.Recorder
	auditLog    audit.Repository
	db          HealthChecker
	publisher   StatePublisher
	relayWriter RelayWriter
	onReboot    func()
	version     string
	server      *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, credential store, controller)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("controller state is required")
	}

	maxFirmware := deps.Firmware.MaxSize
	if maxFirmware <= 0 {
		maxFirmware = controller.DefaultMaxFirmwareSize
	}

	return &Server{
		cfg:         deps.Config,
		maxFirmware: maxFirmware,
		logger:      deps.Logger,
		store:       deps.Auth,
		controller:  deps.Controller,
		recorder:    deps.Audit,
		auditLog:    deps.AuditLog,
		db:          deps.DB,
		publisher:   deps.Publisher,
		relayWriter: deps.RelayWriter,
		onReboot:    deps.OnReboot,
		version:     deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
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

// HealthCheck verifies the API server is running.
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
