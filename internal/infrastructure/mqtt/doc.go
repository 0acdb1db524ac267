// Package mqtt provides the gateway's MQTT client session.
//
// The gateway terminates a single client session against an external broker:
// it subscribes to the telemetry namespace, delivers inbound messages to the
// runtime's handler, and publishes actuator commands. This package wraps
// eclipse/paho.mqtt.golang with:
//
//   - Connection management with auto-reconnect
//   - Subscription tracking and restoration after reconnect
//   - Publish that fails closed while disconnected (no queueing)
//   - Panic recovery around message handlers
//
// Thread Safety: all methods are safe for concurrent use.
package mqtt
