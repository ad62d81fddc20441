package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

// handleListBudgets returns budgets with spend derived from transactions,
// restricted to one month when ?month= is given.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, txs := s.store.Budgets(), s.store.Transactions()
	if r.URL.Query().Has("month") {
		month, err := monthParam(r, s.store.CurrentMonth())
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, r, http.StatusOK, aggregate.BudgetsForMonth(budgets, txs, month))
		return
	}

	views := make([]aggregate.BudgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, aggregate.ViewBudget(b, txs))
	}
	writeJSON(w, r, http.StatusOK, views)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var in core.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in.Category = sanitizeInput(in.Category)
	if err := validateBudgetInput(in); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created := s.store.Actions().AddBudget(in)
	writeJSON(w, r, http.StatusCreated, aggregate.ViewBudget(created, s.store.Transactions()))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch core.BudgetPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !s.store.Actions().UpdateBudget(id, patch) {
		s.noMatch(w, r, id)
		return
	}
	writeFound(w, r, s.store.Budgets(), id, func(b core.Budget) string { return b.ID })
}

func validateBudgetInput(in core.BudgetInput) error {
	if in.Category == "" {
		return fmt.Errorf("%w: category is required", errInvalidInput)
	}
	if _, err := core.ParseMonth(in.Month); err != nil {
		return fmt.Errorf("%w: month must be YYYY-MM", errInvalidInput)
	}
	if err := validateAmount("amount", in.Amount); err != nil {
		return err
	}
	return validateAmount("spent", in.Spent)
}
