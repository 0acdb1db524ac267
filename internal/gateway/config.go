package gateway

import (
	"github.com/edgekit/iotgw/internal/api"
	"github.com/edgekit/iotgw/internal/infrastructure/config"
	"github.com/edgekit/iotgw/internal/infrastructure/mqtt"
)

// Default broker settings when the config omits them.
const (
	defaultBrokerHost = "127.0.0.1"
	defaultBrokerPort = 1883
	defaultClientID   = "iotgw"
)

// stringOr returns the first present key, else def.
// Later config layouts take priority over their legacy spellings.
func stringOr(m *config.Map, def string, keys ...string) string {
	for _, k := range keys {
		if v, ok := m.GetString(k); ok {
			return v
		}
	}
	return def
}

func int64Or(m *config.Map, def int64, keys ...string) int64 {
	for _, k := range keys {
		if v, ok := m.GetInt64(k); ok {
			return v
		}
	}
	return def
}

// topicPrefix returns the MQTT topic prefix, e.g. "site42/".
func topicPrefix(m *config.Map) string {
	return stringOr(m, "", "mqtt.topic_prefix", "topics.prefix")
}

// apiConfigFromMap builds the listener settings with legacy listen.* fallbacks.
func apiConfigFromMap(m *config.Map) api.Config {
	return api.Config{
		Host:        stringOr(m, api.DefaultHost, "network.http_api.host", "listen.host"),
		Port:        int64Or(m, api.DefaultPort, "network.http_api.port", "listen.port"),
		WSPath:      stringOr(m, api.DefaultWSPath, "network.websocket.path", "listen.path"),
		TopicPrefix: topicPrefix(m),
	}
}

// mqttOptionsFromMap builds the broker session options with legacy
// broker.*/client.* fallbacks.
func mqttOptionsFromMap(m *config.Map) mqtt.Options {
	opts := mqtt.Options{
		BrokerHost: stringOr(m, defaultBrokerHost, "mqtt.broker_host", "broker.host"),
		BrokerPort: int64Or(m, defaultBrokerPort, "mqtt.broker_port", "broker.port"),
		ClientID:   stringOr(m, defaultClientID, "mqtt.client_id", "client.id"),
		Username:   stringOr(m, "", "mqtt.username", "client.username"),
		Password:   stringOr(m, "", "mqtt.password", "client.password"),
	}
	if sec, ok := m.GetInt64("mqtt.keepalive_sec"); ok {
		opts.KeepAliveSec = sec
	} else if sec, ok := m.GetInt64("client.keepalive_sec"); ok {
		opts.KeepAliveSec = sec
	}
	if clean, ok := m.GetBool("mqtt.clean_session"); ok {
		opts.DirtySession = !clean
	} else if clean, ok := m.GetBool("client.clean_session"); ok {
		opts.DirtySession = !clean
	}
	return opts
}

// subTopic returns the subscription pattern: mqtt.sub_topic when set, else
// <prefix># when a prefix exists, else empty (no subscription).
func subTopic(m *config.Map) string {
	if t, ok := m.GetString("mqtt.sub_topic"); ok {
		return t
	}
	if prefix := topicPrefix(m); prefix != "" {
		return prefix + "#"
	}
	return ""
}
