// Package api provides the HTTP REST API and WebSocket server for the
// gateway.
//
// It exposes the device registry, the rule engine, and actuator commands to
// consumers, and relays inbound MQTT telemetry to every connected WebSocket
// peer.
//
// The server follows the same lifecycle pattern as the other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
