package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"
)

func disconnectedClient() *Client {
	return &Client{subscriptions: make(map[string]subscription)}
}

func TestOptions_URL(t *testing.T) {
	opts := Options{BrokerHost: "broker.local", BrokerPort: 1883}
	if got := opts.URL(); got != "tcp://broker.local:1883" {
		t.Errorf("URL() = %q", got)
	}
}

func TestBuildClientOptions_Defaults(t *testing.T) {
	opts := buildClientOptions(Options{BrokerHost: "localhost", BrokerPort: 1883, ClientID: "iotgw"})

	if got := opts.ClientID; got != "iotgw" {
		t.Errorf("ClientID = %q", got)
	}
	if got := opts.KeepAlive; got != int64(defaultKeepAliveSec) {
		t.Errorf("KeepAlive = %v, want %v", got, defaultKeepAliveSec)
	}
	if !opts.CleanSession {
		t.Error("CleanSession should default to true")
	}
	if opts.ProtocolVersion != 4 {
		t.Errorf("ProtocolVersion = %d, want 4 (MQTT 3.1.1)", opts.ProtocolVersion)
	}
	if !opts.AutoReconnect || !opts.ConnectRetry {
		t.Error("auto-reconnect should be enabled")
	}
}

func TestBuildClientOptions_Overrides(t *testing.T) {
	opts := buildClientOptions(Options{
		BrokerHost:   "localhost",
		BrokerPort:   1883,
		Username:     "gw",
		Password:     "secret",
		KeepAliveSec: 120,
		DirtySession: true,
	})

	if opts.Username != "gw" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if got := opts.KeepAlive; got != 120 {
		t.Errorf("KeepAlive = %v, want 120", got)
	}
	if opts.CleanSession {
		t.Error("CleanSession should be false for dirty sessions")
	}
}

func TestPublish_Validation(t *testing.T) {
	c := disconnectedClient()

	if err := c.Publish("", []byte("x"), 0, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := c.Publish("t", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos error = %v", err)
	}
	if err := c.Publish("t", []byte("x"), 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected publish error = %v", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := disconnectedClient()
	handler := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 0, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := c.Subscribe("t", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos error = %v", err)
	}
	if err := c.Subscribe("t", 0, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}
	if err := c.Subscribe("t", 0, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected subscribe error = %v", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("failed subscribes tracked: %d", c.SubscriptionCount())
	}
}

func TestHealthCheck(t *testing.T) {
	c := disconnectedClient()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck on disconnected client = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("HealthCheck with expired context = %v", err)
	}
}

func TestClose_NilInnerClient(t *testing.T) {
	c := disconnectedClient()
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
