// Package gateway wires the device registry, rule engine, MQTT session, and
// API server into the running edge gateway.
//
// Every inbound MQTT message flows through HandleMessage in publication
// order: registry upsert, numeric parse, rule evaluation (which may publish
// actuator commands), then a broadcast to every WebSocket peer. HTTP
// requests read and mutate the same structures under their own locks.
package gateway
