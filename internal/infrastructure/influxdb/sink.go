package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/edgekit/iotgw/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second

	defaultBatchSize        = 100
	defaultFlushIntervalSec = 10

	millisecondsPerSecond = 1000
)

// Options configure the telemetry sink.
type Options struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string

	// BatchSize defaults to 100 points.
	BatchSize int64

	// FlushIntervalSec defaults to 10 seconds.
	FlushIntervalSec int64
}

// OptionsFromConfig reads the influxdb.* keys from the config map.
func OptionsFromConfig(m *config.Map) Options {
	enabled, _ := m.GetBool("influxdb.enabled")
	opts := Options{
		Enabled: enabled,
		URL:     m.GetStringOr("influxdb.url", ""),
		Token:   m.GetStringOr("influxdb.token", ""),
		Org:     m.GetStringOr("influxdb.org", ""),
		Bucket:  m.GetStringOr("influxdb.bucket", ""),
	}
	if n, ok := m.GetInt64("influxdb.batch_size"); ok {
		opts.BatchSize = n
	}
	if n, ok := m.GetInt64("influxdb.flush_interval"); ok {
		opts.FlushIntervalSec = n
	}
	return opts
}

// Sink writes sensor telemetry to an InfluxDB v2 bucket.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Writes are non-blocking and batched by the underlying client.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	connected bool
	mu        sync.RWMutex

	// onError is called for async write failures.
	onError func(err error)
}

// Connect creates the sink and verifies the server with a ping.
//
// Returns ErrDisabled when the sink is off in config; the caller skips the
// sink entirely in that case.
func Connect(opts Options) (*Sink, error) {
	if !opts.Enabled {
		return nil, ErrDisabled
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := opts.FlushIntervalSec
	if flushInterval <= 0 {
		flushInterval = defaultFlushIntervalSec
	}

	client := influxdb2.NewClientWithOptions(
		opts.URL,
		opts.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	s := &Sink{
		client:    client,
		writeAPI:  client.WriteAPI(opts.Org, opts.Bucket),
		connected: true,
	}

	go s.handleWriteErrors(s.writeAPI.Errors())

	return s, nil
}

// handleWriteErrors forwards async write errors to the callback.
func (s *Sink) handleWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		s.mu.RLock()
		callback := s.onError
		s.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// WriteSensorValue records one numeric telemetry reading for a device.
//
// The write is queued into the current batch and never blocks.
func (s *Sink) WriteSensorValue(deviceID string, value float64) {
	if !s.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_metrics",
		map[string]string{"device_id": deviceID},
		map[string]interface{}{"value": value},
		time.Now(),
	)
	s.writeAPI.WritePoint(point)
}

// HealthCheck verifies the server is reachable with an active ping.
func (s *Sink) HealthCheck(ctx context.Context) error {
	if !s.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := s.client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check: server not healthy")
	}
	return nil
}

// IsConnected returns the last known connection state.
func (s *Sink) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// SetOnError sets the callback invoked for async write failures.
func (s *Sink) SetOnError(callback func(err error)) {
	s.mu.Lock()
	s.onError = callback
	s.mu.Unlock()
}

// Flush sends the current batch. Safe to call when disconnected.
func (s *Sink) Flush() {
	if s.writeAPI == nil || !s.IsConnected() {
		return
	}
	s.writeAPI.Flush()
}

// Close flushes pending points and shuts the sink down.
func (s *Sink) Close() error {
	if s.client == nil {
		return nil
	}

	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()

	s.writeAPI.Flush()
	s.client.Close()
	return nil
}
