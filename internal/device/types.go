package device

// Well-known device kinds. Kind is open-ended; discovery uses KindUnknown.
const (
	KindSensor   = "sensor"
	KindActuator = "actuator"
	KindUnknown  = "unknown"
)

// TransportMQTT is the transport assigned to devices discovered from broker
// traffic. Configured devices carry whatever their protocol entry says.
const TransportMQTT = "mqtt"

// Status is the mutable runtime state of a device, updated on every
// telemetry arrival. LastSeenMS is UTC milliseconds.
type Status struct {
	Online      bool   `json:"online"`
	LastSeenMS  int64  `json:"last_seen_ms"`
	LastTopic   string `json:"last_topic"`
	LastPayload string `json:"last_payload"`
}

// Device is a field device known to the gateway. JSON field order matches
// the API wire format: identity and topics first, runtime status last.
type Device struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	Transport      string `json:"transport"`
	TelemetryTopic string `json:"telemetry_topic"`
	CommandTopic   string `json:"command_topic"`
	Status         Status `json:"status"`
}
