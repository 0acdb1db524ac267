// Package logging provides structured logging for iotgw.
//
// It wraps log/slog with two gateway-specific extensions: a trace..fatal
// level range and a line-oriented file sink. Each record is formatted as
//
//	YYYY-MM-DD HH:MM:SS [LEVEL] [tag] msg key=value ...
//
// with the timestamp in local time and the tag bracket omitted when no
// component tag is set. The sink opens the log file per write in append mode
// so every line is flushed when the write returns.
//
// The current level is mutable at runtime via SetLevel and all methods are
// safe for concurrent use.
package logging
