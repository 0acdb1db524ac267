// Package history provides the optional rule-firing audit store.
//
// When enabled, every rule firing is recorded to a SQLite database. Records
// flow through a buffered channel into a single writer goroutine so the MQTT
// message path never blocks on disk I/O; when the buffer is full the record
// is dropped. Recent firings are served over GET /api/history.
//
// The store records rule firings only; runtime device state is never
// persisted.
package history
