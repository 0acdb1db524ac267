package device

import (
	"sort"
	"strings"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the in-memory device store with reverse indexes from telemetry
// and command topics to device ids.
//
// Invariant: for every device with a non-empty telemetry or command topic,
// the corresponding reverse index maps that topic to exactly that device id.
// All mutations funnel through Register and UpsertFromTelemetryTopic to
// preserve it. Devices are never deleted at runtime.
//
// All public methods are thread-safe.
type Registry struct {
	mu          sync.RWMutex
	byID        map[string]*Device
	teleByTopic map[string]string
	cmdByTopic  map[string]string
	logger      Logger
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:        make(map[string]*Device),
		teleByTopic: make(map[string]string),
		cmdByTopic:  make(map[string]string),
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register inserts or reconfigures a device.
//
// For an existing id it overwrites kind, transport and both topics while
// preserving the accumulated Status. Stale reverse-index entries owned by
// this device are removed before the new topics are indexed, so a topic
// change never leaves a dangling topic→id mapping.
//
// Returns ErrEmptyID for an empty id.
func (r *Registry) Register(d Device) error {
	if d.ID == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[d.ID]
	if ok {
		if existing.TelemetryTopic != "" && r.teleByTopic[existing.TelemetryTopic] == d.ID {
			delete(r.teleByTopic, existing.TelemetryTopic)
		}
		if existing.CommandTopic != "" && r.cmdByTopic[existing.CommandTopic] == d.ID {
			delete(r.cmdByTopic, existing.CommandTopic)
		}
		existing.Kind = d.Kind
		existing.Transport = d.Transport
		existing.TelemetryTopic = d.TelemetryTopic
		existing.CommandTopic = d.CommandTopic
	} else {
		dev := d
		r.byID[d.ID] = &dev
	}

	// Last write wins on duplicate configured topics: the index moves to
	// this device while the previous owner keeps the topic in its struct.
	if d.TelemetryTopic != "" {
		if prev, taken := r.teleByTopic[d.TelemetryTopic]; taken && prev != d.ID {
			r.logger.Warn("telemetry topic reassigned", "topic", d.TelemetryTopic, "from", prev, "to", d.ID)
		}
		r.teleByTopic[d.TelemetryTopic] = d.ID
	}
	if d.CommandTopic != "" {
		if prev, taken := r.cmdByTopic[d.CommandTopic]; taken && prev != d.ID {
			r.logger.Warn("command topic reassigned", "topic", d.CommandTopic, "from", prev, "to", d.ID)
		}
		r.cmdByTopic[d.CommandTopic] = d.ID
	}

	r.logger.Debug("device registered", "id", d.ID, "kind", d.Kind)
	return nil
}

// Get returns a copy of the device and whether it exists.
func (r *Registry) Get(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok {
		return Device{}, false
	}
	return *d, true
}

// Has reports whether the device id exists.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// List returns copies of all devices sorted ascending by id, for
// deterministic API output.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.byID))
	for _, d := range r.byID {
		devices = append(devices, *d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// UpdateFromTelemetryTopic marks the device owning the telemetry topic as
// online and records the payload. Returns the device id and whether the
// topic was known.
func (r *Registry) UpdateFromTelemetryTopic(topic, payload string, nowMS int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateFromTelemetryLocked(topic, payload, nowMS)
}

func (r *Registry) updateFromTelemetryLocked(topic, payload string, nowMS int64) (string, bool) {
	id, ok := r.teleByTopic[topic]
	if !ok {
		return "", false
	}
	d, ok := r.byID[id]
	if !ok {
		return "", false
	}
	d.Status.Online = true
	d.Status.LastSeenMS = nowMS
	d.Status.LastPayload = payload
	d.Status.LastTopic = topic
	return id, true
}

// UpsertFromTelemetryTopic resolves or creates a device for an inbound MQTT
// telemetry message.
//
// If the telemetry index already knows the topic this is a plain update.
// Otherwise the id is derived from the substring after the final '/' in the
// topic; an empty derivation (topic empty or ending in '/') fails. A new id
// gets a minimal unknown/mqtt device; an existing id is re-pointed at the new
// telemetry topic, replacing its old reverse-index entry.
func (r *Registry) UpsertFromTelemetryTopic(topic, payload string, nowMS int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.updateFromTelemetryLocked(topic, payload, nowMS); ok {
		return id, true
	}

	id := deriveID(topic)
	if id == "" {
		return "", false
	}

	d, ok := r.byID[id]
	if !ok {
		d = &Device{
			ID:             id,
			Kind:           KindUnknown,
			Transport:      TransportMQTT,
			TelemetryTopic: topic,
		}
		r.byID[id] = d
		r.teleByTopic[topic] = id
		r.logger.Info("device discovered", "id", id, "topic", topic)
	} else {
		if d.TelemetryTopic != "" && r.teleByTopic[d.TelemetryTopic] == id {
			delete(r.teleByTopic, d.TelemetryTopic)
		}
		d.TelemetryTopic = topic
		r.teleByTopic[topic] = id
		r.logger.Debug("device telemetry topic moved", "id", id, "topic", topic)
	}

	return r.updateFromTelemetryLocked(topic, payload, nowMS)
}

// GetCommandTopic returns the command topic for the device, present iff the
// device exists and the field is non-empty.
func (r *Registry) GetCommandTopic(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok || d.CommandTopic == "" {
		return "", false
	}
	return d.CommandTopic, true
}

// GetTelemetryTopic returns the telemetry topic for the device, present iff
// the device exists and the field is non-empty.
func (r *Registry) GetTelemetryTopic(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok || d.TelemetryTopic == "" {
		return "", false
	}
	return d.TelemetryTopic, true
}

// deriveID extracts the device id from a telemetry topic: the substring
// after the final '/'. "sensors/temp01" → "temp01".
func deriveID(topic string) string {
	if topic == "" {
		return ""
	}
	if idx := strings.LastIndexByte(topic, '/'); idx >= 0 {
		return topic[idx+1:]
	}
	return topic
}
