package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type monthBody struct {
	Month string `json:"month"`
}

func (s *Server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, monthBody{Month: s.store.CurrentMonth()})
}

// handleSetMonth only accepts zero-padded YYYY-MM; the store itself takes
// any string.
func (s *Server) handleSetMonth(w http.ResponseWriter, r *http.Request) {
	var body monthBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := core.ParseMonth(body.Month)
	if err != nil || core.MonthOf(t) != body.Month {
		writeError(w, r, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	s.store.Actions().SetCurrentMonth(body.Month)
	writeJSON(w, r, http.StatusOK, monthBody{Month: s.store.CurrentMonth()})
}

func (s *Server) handleNextMonth(w http.ResponseWriter, r *http.Request) {
	s.shiftMonth(w, r, s.store.Actions().NextMonth)
}

func (s *Server) handlePrevMonth(w http.ResponseWriter, r *http.Request) {
	s.shiftMonth(w, r, s.store.Actions().PrevMonth)
}

func (s *Server) shiftMonth(w http.ResponseWriter, r *http.Request, shift func() (string, error)) {
	month, err := shift()
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Month cursor not navigable",
			log.FieldMonth, s.store.CurrentMonth(), log.FieldError, err)
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, monthBody{Month: month})
}
