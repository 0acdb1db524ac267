// Package influxdb provides the optional telemetry sink.
//
// When enabled, numeric sensor values parsed from MQTT telemetry are written
// to an InfluxDB v2 bucket as non-blocking, batched points. The gateway's
// message path never waits on the sink; write failures surface through an
// error callback.
package influxdb
