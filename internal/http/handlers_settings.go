package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.store.Settings())
}

// handleUpdateSettings merges the top level only: a notifications object
// in the body replaces the current one whole.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch core.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.store.Actions().UpdateSettings(patch)
	writeJSON(w, r, http.StatusOK, s.store.Settings())
}

func (s *Server) handleUpdateNotifications(w http.ResponseWriter, r *http.Request) {
	var patch core.NotificationsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.store.Actions().UpdateNotifications(patch)
	writeJSON(w, r, http.StatusOK, s.store.Settings())
}
