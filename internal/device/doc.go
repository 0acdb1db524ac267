// Package device provides the in-memory device registry for iotgw.
//
// Devices are half-configured, half-discovered: bootstrap configuration
// registers known sensors and actuators, and unknown MQTT telemetry topics
// create minimal devices on the fly. Two reverse indexes map telemetry and
// command topics back to device ids so inbound messages and outbound
// commands resolve without scanning.
//
// The registry holds runtime state only; it is rebuilt from configuration
// and broker traffic on every start.
package device
