package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

var errInvalidInput = errors.New("invalid input")

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.store.Transactions()
	if r.URL.Query().Has("month") {
		month, err := monthParam(r, s.store.CurrentMonth())
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		txs = aggregate.FilterMonth(txs, month)
	}
	writeJSON(w, r, http.StatusOK, nonNil(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in.Description = sanitizeInput(in.Description)
	in.Category = sanitizeInput(in.Category)
	if err := validateTransactionInput(in); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created := s.store.Actions().AddTransaction(in)
	s.events.LogTransactionCreated(r.Context(), created.ID, created.Category, created.Amount)
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch core.TransactionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !s.store.Actions().UpdateTransaction(id, patch) {
		s.noMatch(w, r, id)
		return
	}
	writeFound(w, r, s.store.Transactions(), id, transactionID)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.Actions().DeleteTransaction(id) {
		s.noMatch(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.Actions().ToggleTransactionComplete(id) {
		s.noMatch(w, r, id)
		return
	}
	writeFound(w, r, s.store.Transactions(), id, transactionID)
}

func validateTransactionInput(in core.TransactionInput) error {
	if in.Type != core.Income && in.Type != core.Expense {
		return fmt.Errorf("%w: type must be %q or %q", errInvalidInput, core.Income, core.Expense)
	}
	if err := validateAmount("amount", in.Amount); err != nil {
		return err
	}
	if _, err := core.ParseDate(in.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", errInvalidInput)
	}
	if in.Recurring && !in.RecurrenceType.Valid() {
		return fmt.Errorf("%w: recurrenceType must be weekly, monthly or yearly", errInvalidInput)
	}
	return nil
}

func validateAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a non-negative number", errInvalidInput, field)
	}
	return nil
}

// noMatch answers an action that named an unknown id. The store treats
// those as no-ops, so the API does too.
func (s *Server) noMatch(w http.ResponseWriter, r *http.Request, id string) {
	log.FromContext(r.Context()).DebugContext(r.Context(), "Unknown id, nothing changed",
		log.FieldEntityID, id, log.FieldPath, r.URL.Path)
	w.WriteHeader(http.StatusNoContent)
}

// writeFound writes the entity with the given id, or 204 when it vanished
// between the action and the read.
func writeFound[T any](w http.ResponseWriter, r *http.Request, items []T, id string, key func(T) string) {
	i := slices.IndexFunc(items, func(item T) bool { return key(item) == id })
	if i < 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusOK, items[i])
}

func transactionID(t core.Transaction) string { return t.ID }

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
