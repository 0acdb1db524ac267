package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/edgekit/iotgw/internal/device"
	"github.com/edgekit/iotgw/internal/history"
	"github.com/edgekit/iotgw/internal/infrastructure/logging"
	"github.com/edgekit/iotgw/internal/rules"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Default listener settings.
const (
	DefaultHost   = "0.0.0.0"
	DefaultPort   = 8080
	DefaultWSPath = "/ws"

	readTimeout  = 15 * time.Second
	writeTimeout = 15 * time.Second
	idleTimeout  = 60 * time.Second
)

// MQTTPublisher is the slice of the MQTT client the API needs.
// Keeping it an interface lets handlers run without a broker in tests.
type MQTTPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// HistoryReader serves the rule-firing audit endpoint.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Firing, error)
}

// HealthCheckFunc probes one backing component for /api/health.
type HealthCheckFunc func(ctx context.Context) error

// Config holds the listener settings.
type Config struct {
	Host   string
	Port   int64
	WSPath string

	// TopicPrefix builds the fallback command topic <prefix>cmd/{id}.
	TopicPrefix string
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   Config
	Logger   *logging.Logger
	Registry *device.Registry
	Engine   *rules.Engine
	MQTT     MQTTPublisher

	// ReloadRules re-reads the rule files; nil disables the reload endpoint's
	// file pass (it still answers ok).
	ReloadRules func() error

	// History is nil when the audit store is disabled.
	History HistoryReader

	// HealthChecks are reported per component by /api/health. A failing
	// check degrades the status but never fails the endpoint.
	HealthChecks map[string]HealthCheckFunc

	Version string
}

// Server is the gateway's HTTP and WebSocket front end.
type Server struct {
	cfg      Config
	logger   *logging.Logger
	registry *device.Registry
	engine   *rules.Engine
	mqtt     MQTTPublisher
	reload   func() error
	hist     HistoryReader
	health   map[string]HealthCheckFunc
	version  string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates the API server. It is not listening until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("rule engine is required")
	}
	// MQTT is optional: reads still work, commands answer 503.

	cfg := deps.Config
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.WSPath == "" {
		cfg.WSPath = DefaultWSPath
	}

	return &Server{
		cfg:      cfg,
		logger:   deps.Logger,
		registry: deps.Registry,
		engine:   deps.Engine,
		mqtt:     deps.MQTT,
		reload:   deps.ReloadRules,
		hist:     deps.History,
		health:   deps.HealthChecks,
		version:  deps.Version,
	}, nil
}

// Hub returns the WebSocket hub for telemetry broadcast.
// Valid after Start().
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; a failure to bind is logged
// at Error and the process stays up, per the transport error policy.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.logger, s.mqtt)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	go func() {
		s.logger.Info("api server listening", "address", s.server.Addr, "ws_path", s.cfg.WSPath)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server has been started.
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
