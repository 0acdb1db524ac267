package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListDevices returns every registered device, sorted by id.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

// handleGetDevice returns one device by id.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeDeviceNotFound)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
