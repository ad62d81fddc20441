package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

type goalView struct {
	core.Goal
	Progress aggregate.Ratio `json:"progress"`
}

type goalList struct {
	Goals        []goalView `json:"goals"`
	TotalTarget  float64    `json:"totalTarget"`
	TotalCurrent float64    `json:"totalCurrent"`
}

func viewGoal(g core.Goal) goalView {
	return goalView{Goal: g, Progress: aggregate.Ratio(aggregate.GoalProgress(g))}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals := s.store.Goals()
	out := goalList{Goals: make([]goalView, 0, len(goals))}
	for _, g := range goals {
		out.Goals = append(out.Goals, viewGoal(g))
	}
	out.TotalTarget, out.TotalCurrent = aggregate.GoalTotals(goals)
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var in core.GoalInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in.Name = sanitizeInput(in.Name)
	in.Description = sanitizeInput(in.Description)
	if err := validateGoalInput(in); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, r, http.StatusCreated, viewGoal(s.store.Actions().AddGoal(in)))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch core.GoalPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !s.store.Actions().UpdateGoal(id, patch) {
		s.noMatch(w, r, id)
		return
	}
	for _, g := range s.store.Goals() {
		if g.ID == id {
			writeJSON(w, r, http.StatusOK, viewGoal(g))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.Actions().DeleteGoal(id) {
		s.noMatch(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateGoalInput(in core.GoalInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", errInvalidInput)
	}
	if err := validateAmount("targetAmount", in.TargetAmount); err != nil {
		return err
	}
	if err := validateAmount("currentAmount", in.CurrentAmount); err != nil {
		return err
	}
	if _, err := core.ParseDate(in.Deadline); err != nil {
		return fmt.Errorf("%w: deadline must be YYYY-MM-DD", errInvalidInput)
	}
	return nil
}
