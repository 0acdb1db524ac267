package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ruleSummary is the list representation of a rule.
type ruleSummary struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Enabled  bool    `json:"enabled"`
	SensorID string  `json:"sensor_id"`
	Op       string  `json:"op"`
	Value    float64 `json:"value"`
}

// handleListRules returns all rules in engine order.
func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	installed := s.engine.Rules()
	out := make([]ruleSummary, 0, len(installed))
	for _, r := range installed {
		out = append(out, ruleSummary{
			ID:       r.ID,
			Category: string(r.Category),
			Enabled:  r.Enabled,
			SensorID: r.When.SensorID,
			Op:       r.When.Op,
			Value:    r.When.Value,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleReloadRules re-reads the rule files and reinstalls them.
//
// The reload is best effort: unreadable files leave an empty category and
// the response is ok either way.
func (s *Server) handleReloadRules(w http.ResponseWriter, _ *http.Request) {
	if s.reload != nil {
		if err := s.reload(); err != nil {
			s.logger.Warn("rule reload", "error", err)
		}
	}
	writeOK(w)
}

// handleEnableRule enables a rule by id.
func (s *Server) handleEnableRule(w http.ResponseWriter, r *http.Request) {
	s.setRuleEnabled(w, chi.URLParam(r, "id"), true)
}

// handleDisableRule disables a rule by id.
func (s *Server) handleDisableRule(w http.ResponseWriter, r *http.Request) {
	s.setRuleEnabled(w, chi.URLParam(r, "id"), false)
}

func (s *Server) setRuleEnabled(w http.ResponseWriter, id string, enabled bool) {
	if !s.engine.SetEnabled(id, enabled) {
		writeError(w, http.StatusNotFound, ErrCodeRuleNotFound)
		return
	}
	writeOK(w)
}
