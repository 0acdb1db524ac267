package api

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in response bodies as {"error":"<code>"}.
const (
	ErrCodeDeviceNotFound   = "device_not_found"
	ErrCodeRuleNotFound     = "rule_not_found"
	ErrCodeMissingValue     = "missing_value"
	ErrCodeMQTTNotConnected = "mqtt_not_connected"
	ErrCodeHistoryDisabled  = "history_disabled"
	ErrCodeInternal         = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes an error response of the form {"error":"<code>"}.
func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeOK writes the standard success body {"ok":true}.
func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
