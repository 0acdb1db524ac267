package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edgekit/iotgw/internal/api"
	"github.com/edgekit/iotgw/internal/device"
	"github.com/edgekit/iotgw/internal/history"
	"github.com/edgekit/iotgw/internal/infrastructure/config"
	"github.com/edgekit/iotgw/internal/infrastructure/influxdb"
	"github.com/edgekit/iotgw/internal/infrastructure/logging"
	"github.com/edgekit/iotgw/internal/infrastructure/mqtt"
	"github.com/edgekit/iotgw/internal/rules"
)

// heartbeatInterval is the period of the run loop's debug heartbeat.
const heartbeatInterval = 10 * time.Second

// gatewayStatusTopic is the suffix of the retained gateway status topic.
const gatewayStatusTopic = "status/gateway"

// Publisher is the slice of the MQTT client rule actions need.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
	HealthCheck(ctx context.Context) error
}

// Broadcaster fans telemetry out to every WebSocket peer.
type Broadcaster interface {
	Broadcast(v any)
}

// TelemetryWriter records numeric sensor values (the InfluxDB sink).
type TelemetryWriter interface {
	WriteSensorValue(deviceID string, value float64)
}

// FiringRecorder records rule firings (the history store).
type FiringRecorder interface {
	Record(f history.Firing) bool
}

// publisherHolder hands the broker session to consumers that start before
// the session exists: the API server and the rule action path. Until Set is
// called every publish fails closed with ErrNotConnected.
//
// The mutex makes the Set in connectMQTT visible to HTTP handler goroutines
// already serving requests.
type publisherHolder struct {
	mu     sync.RWMutex
	client Publisher
}

func (h *publisherHolder) Set(p Publisher) {
	h.mu.Lock()
	h.client = p
	h.mu.Unlock()
}

func (h *publisherHolder) get() Publisher {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client
}

func (h *publisherHolder) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p := h.get()
	if p == nil {
		return mqtt.ErrNotConnected
	}
	return p.Publish(topic, payload, qos, retained)
}

func (h *publisherHolder) IsConnected() bool {
	p := h.get()
	return p != nil && p.IsConnected()
}

func (h *publisherHolder) HealthCheck(ctx context.Context) error {
	p := h.get()
	if p == nil {
		return mqtt.ErrNotConnected
	}
	return p.HealthCheck(ctx)
}

// Gateway owns the runtime wiring of registry, engine, transports, and the
// optional sinks.
type Gateway struct {
	cfg      *config.Map
	log      *logging.Logger
	registry *device.Registry
	engine   *rules.Engine
	version  string

	prefix     string
	configRoot string

	mqttClient *mqtt.Client
	publisher  *publisherHolder
	apiServer  *api.Server
	hub        Broadcaster

	telemetry TelemetryWriter
	firings   FiringRecorder
	histStore *history.Store

	nowMS func() int64
}

// New creates the gateway around a loaded config map.
func New(cfg *config.Map, log *logging.Logger, version string) *Gateway {
	g := &Gateway{
		cfg:        cfg,
		log:        log,
		registry:   device.NewRegistry(),
		engine:     rules.NewEngine(),
		version:    version,
		prefix:     topicPrefix(cfg),
		configRoot: cfg.GetStringOr("paths.config_root", "config"),
		publisher:  &publisherHolder{},
		nowMS:      func() int64 { return time.Now().UnixMilli() },
	}
	g.registry.SetLogger(log.With("component", "registry"))
	return g
}

// Registry exposes the device registry (used by tests and the API server).
func (g *Gateway) Registry() *device.Registry {
	return g.registry
}

// Engine exposes the rule engine.
func (g *Gateway) Engine() *rules.Engine {
	return g.engine
}

// Start brings up the gateway: sinks, device bootstrap, rules, the API
// server, and last the broker session.
//
// The web front end comes up before MQTT so the hub and the publisher
// holder are in place when the first message can arrive; the hub write
// happens-before the subscribe inside connectMQTT, so the delivery
// goroutine always observes it.
//
// Transport failures (web listen, MQTT connect) are logged and the gateway
// stays up; only programmer errors surface as a returned error.
func (g *Gateway) Start(ctx context.Context) error {
	g.startSinks()

	g.loadDevices()
	g.loadRules()

	server, err := api.New(api.Deps{
		Config:       apiConfigFromMap(g.cfg),
		Logger:       g.log.With("component", "api"),
		Registry:     g.registry,
		Engine:       g.engine,
		MQTT:         g.publisher,
		ReloadRules:  g.reloadRules,
		History:      g.historyOrNil(),
		HealthChecks: g.healthChecks(),
		Version:      g.version,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}
	g.apiServer = server

	if err := server.Start(ctx); err != nil {
		g.log.Error("api server start failed", "error", err)
	} else {
		g.hub = server.Hub()
	}

	if enabled, _ := g.cfg.GetBool("mqtt.enabled"); enabled {
		g.connectMQTT()
	} else {
		g.log.Info("mqtt disabled")
	}

	return nil
}

// healthChecks builds the component checks reported by /api/health.
// The publisher holder check answers for the broker session even though the
// session attaches after the server is up.
func (g *Gateway) healthChecks() map[string]api.HealthCheckFunc {
	checks := map[string]api.HealthCheckFunc{
		"mqtt": g.publisher.HealthCheck,
	}
	if sink, ok := g.telemetry.(*influxdb.Sink); ok {
		checks["influxdb"] = sink.HealthCheck
	}
	return checks
}

// startSinks connects the optional InfluxDB and history stores.
func (g *Gateway) startSinks() {
	sink, err := influxdb.Connect(influxdb.OptionsFromConfig(g.cfg))
	switch {
	case err == nil:
		sink.SetOnError(func(err error) {
			g.log.Error("influxdb write error", "error", err)
		})
		g.telemetry = sink
		g.log.Info("influxdb sink connected")
	case errors.Is(err, influxdb.ErrDisabled):
		g.log.Debug("influxdb sink disabled")
	default:
		g.log.Error("influxdb sink unavailable", "error", err)
	}

	if enabled, _ := g.cfg.GetBool("history.enabled"); enabled {
		path := g.cfg.GetStringOr("history.path", "data/history.db")
		store, err := history.Open(path)
		if err != nil {
			g.log.Error("history store unavailable", "path", path, "error", err)
			return
		}
		g.histStore = store
		g.firings = store
		g.log.Info("history store opened", "path", path)
	}
}

// connectMQTT opens the broker session, attaches it to the publisher
// holder, announces the gateway on the retained status topic, and installs
// the message handler. Connection failure is logged; auto-reconnect keeps
// retrying behind the scenes once an initial session existed.
func (g *Gateway) connectMQTT() {
	opts := mqttOptionsFromMap(g.cfg)
	client, err := mqtt.Connect(opts)
	if err != nil {
		g.log.Error("mqtt connect failed", "broker", opts.URL(), "error", err)
		return
	}
	g.mqttClient = client
	g.publisher.Set(client)

	statusTopic := g.prefix + gatewayStatusTopic
	mqttLog := g.log.With("component", "mqtt")
	client.SetLogger(mqttLog)
	client.SetOnConnect(func() {
		mqttLog.Info("mqtt session established")
		if err := client.PublishString(statusTopic, "online", 0, true); err != nil {
			mqttLog.Warn("status publish failed", "error", err)
		}
	})
	client.SetOnDisconnect(func(err error) {
		mqttLog.Warn("mqtt session lost", "error", err)
	})
	g.log.Info("mqtt connected", "broker", opts.URL(), "client_id", opts.ClientID)

	// The initial onConnect may have fired before the callback was set.
	if err := client.PublishString(statusTopic, "online", 0, true); err != nil {
		mqttLog.Warn("status publish failed", "error", err)
	}

	topic := subTopic(g.cfg)
	if topic == "" {
		g.log.Warn("no subscription topic configured")
		return
	}
	if err := client.Subscribe(topic, 0, func(t string, payload []byte) error {
		g.HandleMessage(t, string(payload))
		return nil
	}); err != nil {
		g.log.Error("mqtt subscribe failed", "topic", topic, "error", err)
		return
	}
	g.log.Info("mqtt subscribed", "topic", topic)
}

// Run blocks until ctx is cancelled, emitting a heartbeat every 10 seconds.
func (g *Gateway) Run(ctx context.Context) error {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.heartbeat(ctx)
		case <-ctx.Done():
			g.log.Info("iotgw stopping")
			g.log.Flush()
			return nil
		}
	}
}

// heartbeat logs a periodic snapshot of the runtime state.
func (g *Gateway) heartbeat(ctx context.Context) {
	fields := []any{
		"devices", g.registry.Count(),
		"rules", g.engine.Count(),
		"mqtt_connected", g.publisher.IsConnected(),
	}
	if g.mqttClient != nil {
		fields = append(fields, "subscriptions", g.mqttClient.SubscriptionCount())
	}
	if g.apiServer != nil {
		fields = append(fields, "api_ok", g.apiServer.HealthCheck(ctx) == nil)
	}
	g.log.Debug("heartbeat", fields...)
	g.log.Flush()
}

// Close shuts the transports and sinks down in reverse start order: the
// broker session first, so nothing broadcasts into a closing hub.
func (g *Gateway) Close() {
	if g.mqttClient != nil {
		// Best effort; the broker marks the gateway offline.
		if err := g.mqttClient.PublishString(g.prefix+gatewayStatusTopic, "offline", 0, true); err != nil {
			g.log.Warn("status publish failed", "error", err)
		}
		if err := g.mqttClient.Close(); err != nil {
			g.log.Error("mqtt close", "error", err)
		}
	}
	if g.apiServer != nil {
		if err := g.apiServer.Close(); err != nil {
			g.log.Error("api server close", "error", err)
		}
	}
	if sink, ok := g.telemetry.(*influxdb.Sink); ok && sink != nil {
		if err := sink.Close(); err != nil {
			g.log.Error("influxdb close", "error", err)
		}
	}
	if g.histStore != nil {
		if err := g.histStore.Close(); err != nil {
			g.log.Error("history close", "error", err)
		}
	}
	g.log.Flush()
}

func (g *Gateway) historyOrNil() api.HistoryReader {
	if g.histStore == nil {
		return nil
	}
	return g.histStore
}
