package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Map is a flat view of merged configuration files: dotted string keys to
// string values. The zero value is not usable; create with NewMap.
//
// Map is not safe for concurrent mutation. The gateway loads all files during
// startup and treats the map as read-only afterwards.
type Map struct {
	entries map[string]string
}

// NewMap creates an empty configuration map.
func NewMap() *Map {
	return &Map{entries: make(map[string]string)}
}

// Set stores a key directly. Later writes win, matching file merge order.
func (m *Map) Set(key, value string) {
	m.entries[key] = value
}

// Has reports whether the key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// GetString returns the raw value for key and whether it is present.
func (m *Map) GetString(key string) (string, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// GetStringOr returns the value for key, or def when absent.
func (m *Map) GetStringOr(key, def string) string {
	if v, ok := m.entries[key]; ok {
		return v
	}
	return def
}

// GetInt64 returns the value parsed as a strict base-10 integer: an optional
// leading '-' followed by one or more ASCII digits and nothing else. Values
// that are present but malformed report absent.
func (m *Map) GetInt64(key string) (int64, bool) {
	v, ok := m.entries[key]
	if !ok || !isStrictInt(v) {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetBool returns the value parsed as a boolean. Case-insensitive
// "1/true/yes/on" are true and "0/false/no/off" are false; anything else
// reports absent.
func (m *Map) GetBool(key string) (bool, bool) {
	v, ok := m.entries[key]
	if !ok {
		return false, false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// Missing returns a "missing config key: <k>" message for every listed key
// that is absent. An empty slice means all keys are present.
func (m *Map) Missing(keys ...string) []string {
	var msgs []string
	for _, k := range keys {
		if !m.Has(k) {
			msgs = append(msgs, fmt.Sprintf("missing config key: %s", k))
		}
	}
	return msgs
}

// isStrictInt reports whether s is an optional '-' followed by >=1 digits.
func isStrictInt(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
