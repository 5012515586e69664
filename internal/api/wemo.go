package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleWemoDiscover triggers a LAN discovery broadcast and returns
// the full updated device list.
func (s *Server) handleWemoDiscover(w http.ResponseWriter, r *http.Request) {
	infos, err := s.wemo.Discover(r.Context())
	if err != nil {
		s.logger.Error("discovery failed", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleWemoList lists currently known LAN devices without forcing
// rediscovery.
func (s *Server) handleWemoList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.wemo.List(r.Context()))
}

// handleWemoGet returns one device with fresh state.
func (s *Server) handleWemoGet(w http.ResponseWriter, r *http.Request) {
	info, err := s.wemo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleWemoAction executes on, off or toggle against a device.
func (s *Server) handleWemoAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action := chi.URLParam(r, "action")

	info, err := s.wemo.Control(r.Context(), id, action)
	if err != nil {
		s.logger.Error("control failed", "id", id, "action", action, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// renameRequest is the body of a rename call.
type renameRequest struct {
	Name string `json:"name"`
}

// handleWemoRename renames a device and re-keys the registry entry.
func (s *Server) handleWemoRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")
	info, err := s.wemo.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
