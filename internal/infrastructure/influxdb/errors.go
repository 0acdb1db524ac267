package influxdb

import "errors"

// Sentinel errors for sink operations, checked with errors.Is().
var (
	// ErrDisabled indicates the sink is disabled in configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrNotConnected indicates the sink is not connected.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")
)
