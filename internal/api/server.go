package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/phillipkujawa/wemo-controller/internal/events"
	"github.com/phillipkujawa/wemo-controller/internal/govee"
	"github.com/phillipkujawa/wemo-controller/internal/infrastructure/config"
	"github.com/phillipkujawa/wemo-controller/internal/infrastructure/logging"
	"github.com/phillipkujawa/wemo-controller/internal/infrastructure/mqtt"
	"github.com/phillipkujawa/wemo-controller/internal/wemo"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// WemoService is the LAN device family surface the server exposes.
type WemoService interface {
	Discover(ctx context.Context) ([]wemo.Info, error)
	List(ctx context.Context) []wemo.Info
	Get(ctx context.Context, id string) (wemo.Info, error)
	Control(ctx context.Context, id, action string) (wemo.Info, error)
	Rename(ctx context.Context, id, name string) (wemo.Info, error)
	Len() int
}

// GoveeService is the cloud device family surface the server exposes.
type GoveeService interface {
	Discover(ctx context.Context) ([]govee.Info, error)
	List(ctx context.Context) ([]govee.Info, error)
	Control(ctx context.Context, id, action string) (govee.Info, error)
	Len() int
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	Events      config.EventsConfig
	Logger      *logging.Logger
	Wemo        WemoService
	Govee       GoveeService
	Broadcaster *events.Broadcaster
	MQTT        *mqtt.Client // optional: event feed connection, surfaced in /metrics
	Version     string
}

// Server is the controller's HTTP server.
//
// It manages the HTTP listener, routes, middleware and the push
// streams. The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	eventsCfg   config.EventsConfig
	logger      *logging.Logger
	wemo        WemoService
	govee       GoveeService
	broadcaster *events.Broadcaster
	mqtt        *mqtt.Client
	version     string
	startTime   time.Time
	server      *http.Server
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Wemo == nil || deps.Govee == nil {
		return nil, fmt.Errorf("both device services are required")
	}
	if deps.Broadcaster == nil {
		return nil, fmt.Errorf("event broadcaster is required")
	}

	return &Server{
		cfg:         deps.Config,
		eventsCfg:   deps.Events,
		logger:      deps.Logger,
		wemo:        deps.Wemo,
		govee:       deps.Govee,
		broadcaster: deps.Broadcaster,
		mqtt:        deps.MQTT,
		version:     deps.Version,
		startTime:   time.Now(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; the server is stopped
// with Close(). The write timeout is deliberately left at the
// configured value (0 = unlimited by default) because /events and /ws
// hold their connections open indefinitely.
func (s *Server) Start(ctx context.Context) error {
	_, s.cancel = context.WithCancel(ctx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	if s.cancel != nil {
		s.cancel()
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
