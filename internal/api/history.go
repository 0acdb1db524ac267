package api

import (
	"net/http"
	"strconv"
)

// handleHistory returns recent rule firings, newest first.
// Answers 404 when the audit store is disabled.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeError(w, http.StatusNotFound, ErrCodeHistoryDisabled)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	firings, err := s.hist.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal)
		return
	}
	writeJSON(w, http.StatusOK, firings)
}
