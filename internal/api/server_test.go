package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/edgekit/iotgw/internal/device"
	"github.com/edgekit/iotgw/internal/history"
	"github.com/edgekit/iotgw/internal/infrastructure/logging"
	"github.com/edgekit/iotgw/internal/rules"
)

// mockPublisher records publishes and simulates connection state.
type mockPublisher struct {
	mu        sync.Mutex
	connected bool
	err       error
	published []publishedMsg
}

type publishedMsg struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, publishedMsg{topic, string(payload), qos, retained})
	return nil
}

func (m *mockPublisher) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockPublisher) last(t *testing.T) publishedMsg {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.published) == 0 {
		t.Fatal("nothing published")
	}
	return m.published[len(m.published)-1]
}

func testServer(t *testing.T, mod func(*Deps)) (*Server, *mockPublisher) {
	t.Helper()

	reg := device.NewRegistry()
	eng := rules.NewEngine()
	pub := &mockPublisher{connected: true}

	deps := Deps{
		Config:   Config{TopicPrefix: "site42/"},
		Logger:   logging.New("", logging.LevelError),
		Registry: reg,
		Engine:   eng,
		MQTT:     pub,
		Version:  "1.2.3",
	}
	if mod != nil {
		mod(&deps)
	}

	s, err := New(deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, pub
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndVersion(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	var health map[string]string
	decodeBody(t, rec, &health)
	if health["status"] != "ok" {
		t.Errorf("health body = %v", health)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/version", "")
	var version map[string]string
	decodeBody(t, rec, &version)
	if version["version"] != "1.2.3" {
		t.Errorf("version body = %v", version)
	}
}

func TestHealth_ComponentChecks(t *testing.T) {
	s, _ := testServer(t, func(d *Deps) {
		d.HealthChecks = map[string]HealthCheckFunc{
			"mqtt":     func(context.Context) error { return nil },
			"influxdb": func(context.Context) error { return errors.New("ping failed") },
		}
	})

	rec := doRequest(t, s, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeBody(t, rec, &body)
	if body.Status != "degraded" {
		t.Errorf("status = %q, want degraded", body.Status)
	}
	if body.Checks["mqtt"] != "ok" || body.Checks["influxdb"] != "ping failed" {
		t.Errorf("checks = %v", body.Checks)
	}
}

func TestDevices(t *testing.T) {
	s, _ := testServer(t, nil)

	for _, id := range []string{"zeta", "alpha"} {
		if err := s.registry.Register(device.Device{ID: id, Kind: device.KindSensor}); err != nil {
			t.Fatal(err)
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/api/devices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []device.Device
	decodeBody(t, rec, &list)
	if len(list) != 2 || list[0].ID != "alpha" || list[1].ID != "zeta" {
		t.Errorf("list = %+v, want sorted by id", list)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/devices/alpha", "")
	var d device.Device
	decodeBody(t, rec, &d)
	if d.ID != "alpha" {
		t.Errorf("device = %+v", d)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/devices/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing device status = %d", rec.Code)
	}
	var errBody map[string]string
	decodeBody(t, rec, &errBody)
	if errBody["error"] != "device_not_found" {
		t.Errorf("error body = %v", errBody)
	}
}

func TestRules(t *testing.T) {
	reloaded := false
	s, _ := testServer(t, func(d *Deps) {
		d.ReloadRules = func() error {
			reloaded = true
			return nil
		}
	})

	s.engine.AddRules([]rules.Rule{
		{
			ID: "r1", Category: rules.CategoryAutomation, Enabled: true,
			When: rules.Condition{SensorID: "temp01", Op: ">", Value: 30},
		},
		{
			ID: "r2", Category: rules.CategoryAlarm, Enabled: false,
			When: rules.Condition{SensorID: "temp01", Op: "<=", Value: 5},
		},
	})

	rec := doRequest(t, s, http.MethodGet, "/api/rules", "")
	var list []ruleSummary
	decodeBody(t, rec, &list)
	want := []ruleSummary{
		{ID: "r1", Category: "automation", Enabled: true, SensorID: "temp01", Op: ">", Value: 30},
		{ID: "r2", Category: "alarm", Enabled: false, SensorID: "temp01", Op: "<=", Value: 5},
	}
	if len(list) != 2 || list[0] != want[0] || list[1] != want[1] {
		t.Errorf("rules = %+v, want %+v", list, want)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/rules/r2/enable", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("enable status = %d", rec.Code)
	}
	if got := s.engine.Rules(); !got[1].Enabled {
		t.Error("r2 not enabled")
	}

	rec = doRequest(t, s, http.MethodPost, "/api/rules/r1/disable", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("disable status = %d", rec.Code)
	}
	if got := s.engine.Rules(); got[0].Enabled {
		t.Error("r1 not disabled")
	}

	rec = doRequest(t, s, http.MethodPost, "/api/rules/ghost/enable", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown rule status = %d", rec.Code)
	}
	var errBody map[string]string
	decodeBody(t, rec, &errBody)
	if errBody["error"] != "rule_not_found" {
		t.Errorf("error body = %v", errBody)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/rules/reload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reload status = %d", rec.Code)
	}
	var ok map[string]bool
	decodeBody(t, rec, &ok)
	if !ok["ok"] || !reloaded {
		t.Errorf("reload body = %v, callback = %v", ok, reloaded)
	}
}

func TestActuatorSet(t *testing.T) {
	s, pub := testServer(t, nil)
	if err := s.registry.Register(device.Device{
		ID: "fan01", Kind: device.KindActuator, CommandTopic: "site42/cmd/fan01",
	}); err != nil {
		t.Fatal(err)
	}

	// String value goes out verbatim.
	rec := doRequest(t, s, http.MethodPost, "/api/actuators/fan01/set", `{"value":"on"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set status = %d, body %s", rec.Code, rec.Body.String())
	}
	msg := pub.last(t)
	if msg.topic != "site42/cmd/fan01" || msg.payload != "on" || msg.qos != 0 || msg.retained {
		t.Errorf("published = %+v", msg)
	}

	// Integral numbers render without a decimal point.
	doRequest(t, s, http.MethodPost, "/api/actuators/fan01/set", `{"value":1}`)
	if msg := pub.last(t); msg.payload != "1" {
		t.Errorf("numeric payload = %q, want \"1\"", msg.payload)
	}

	doRequest(t, s, http.MethodPost, "/api/actuators/fan01/set", `{"value":21.5}`)
	if msg := pub.last(t); msg.payload != "21.5" {
		t.Errorf("numeric payload = %q, want \"21.5\"", msg.payload)
	}

	// Unknown actuator falls back to the prefix command topic.
	doRequest(t, s, http.MethodPost, "/api/actuators/ghost/set", `{"value":"x"}`)
	if msg := pub.last(t); msg.topic != "site42/cmd/ghost" {
		t.Errorf("fallback topic = %q", msg.topic)
	}
}

func TestActuatorSet_Errors(t *testing.T) {
	s, pub := testServer(t, nil)

	for _, body := range []string{"", "{}", `{"value":null}`, `{"value":true}`, "not json"} {
		rec := doRequest(t, s, http.MethodPost, "/api/actuators/fan01/set", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q status = %d, want 400", body, rec.Code)
			continue
		}
		var errBody map[string]string
		decodeBody(t, rec, &errBody)
		if errBody["error"] != "missing_value" {
			t.Errorf("body %q error = %v", body, errBody)
		}
	}

	pub.mu.Lock()
	pub.connected = false
	pub.mu.Unlock()

	rec := doRequest(t, s, http.MethodPost, "/api/actuators/fan01/set", `{"value":"on"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("disconnected status = %d", rec.Code)
	}
	var errBody map[string]string
	decodeBody(t, rec, &errBody)
	if errBody["error"] != "mqtt_not_connected" {
		t.Errorf("error body = %v", errBody)
	}
}

// mockHistory serves canned firings.
type mockHistory struct {
	firings []history.Firing
	err     error
}

func (m *mockHistory) Recent(_ context.Context, _ int) ([]history.Firing, error) {
	return m.firings, m.err
}

func TestHistory(t *testing.T) {
	s, _ := testServer(t, nil)
	rec := doRequest(t, s, http.MethodGet, "/api/history", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled history status = %d", rec.Code)
	}
	var errBody map[string]string
	decodeBody(t, rec, &errBody)
	if errBody["error"] != "history_disabled" {
		t.Errorf("error body = %v", errBody)
	}

	s, _ = testServer(t, func(d *Deps) {
		d.History = &mockHistory{firings: []history.Firing{
			{ID: 2, RuleID: "r1", FiredAt: 200},
			{ID: 1, RuleID: "r1", FiredAt: 100},
		}}
	})
	rec = doRequest(t, s, http.MethodGet, "/api/history?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var firings []history.Firing
	decodeBody(t, rec, &firings)
	if len(firings) != 2 || firings[0].FiredAt != 200 {
		t.Errorf("firings = %+v", firings)
	}

	s, _ = testServer(t, func(d *Deps) {
		d.History = &mockHistory{err: errors.New("boom")}
	})
	rec = doRequest(t, s, http.MethodGet, "/api/history", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("failing history status = %d", rec.Code)
	}
}

func TestNew_RequiredDeps(t *testing.T) {
	logger := logging.New("", logging.LevelError)
	reg := device.NewRegistry()
	eng := rules.NewEngine()

	if _, err := New(Deps{Registry: reg, Engine: eng}); err == nil {
		t.Error("New without logger succeeded")
	}
	if _, err := New(Deps{Logger: logger, Engine: eng}); err == nil {
		t.Error("New without registry succeeded")
	}
	if _, err := New(Deps{Logger: logger, Registry: reg}); err == nil {
		t.Error("New without engine succeeded")
	}
}
