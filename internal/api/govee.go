package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleGoveeDiscover refreshes the cloud device cache and returns
// every device with fresh state.
func (s *Server) handleGoveeDiscover(w http.ResponseWriter, r *http.Request) {
	infos, err := s.govee.Discover(r.Context())
	if err != nil {
		s.logger.Error("cloud discovery failed", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleGoveeList lists cached cloud devices with fresh state,
// discovering first on an empty cache.
func (s *Server) handleGoveeList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.govee.List(r.Context())
	if err != nil {
		s.logger.Error("cloud list failed", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleGoveeAction turns a cloud device on or off.
func (s *Server) handleGoveeAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action := chi.URLParam(r, "action")

	info, err := s.govee.Control(r.Context(), id, action)
	if err != nil {
		s.logger.Error("cloud control failed", "id", id, "action", action, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
