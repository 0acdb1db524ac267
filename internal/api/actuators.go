package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setRequest is the body of POST /api/actuators/{id}/set.
// Value accepts a JSON number or string.
type setRequest struct {
	Value any `json:"value"`
}

// handleActuatorSet publishes a command payload to an actuator.
//
// The command topic comes from the registry; devices discovered without one
// fall back to <prefix>cmd/{id}. Publishes use QoS 0, not retained, and fail
// closed with 503 while the broker session is down.
func (s *Server) handleActuatorSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, ErrCodeMissingValue)
		return
	}

	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeMissingValue)
		return
	}

	var payload string
	switch v := req.Value.(type) {
	case string:
		payload = v
	case float64:
		payload = FormatNumber(v)
	default:
		writeError(w, http.StatusBadRequest, ErrCodeMissingValue)
		return
	}

	if s.mqtt == nil || !s.mqtt.IsConnected() {
		writeError(w, http.StatusServiceUnavailable, ErrCodeMQTTNotConnected)
		return
	}

	topic, ok := s.registry.GetCommandTopic(id)
	if !ok {
		topic = s.cfg.TopicPrefix + "cmd/" + id
	}

	if err := s.mqtt.Publish(topic, []byte(payload), 0, false); err != nil {
		s.logger.Error("actuator command publish failed", "actuator", id, "topic", topic, "error", err)
		writeError(w, http.StatusServiceUnavailable, ErrCodeMQTTNotConnected)
		return
	}

	s.logger.Info("actuator command", "actuator", id, "topic", topic, "value", payload)
	writeOK(w)
}
