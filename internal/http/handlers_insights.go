package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

const (
	defaultUpcomingDays = 30
	maxUpcomingDays     = 366
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.dash == nil {
		writeError(w, r, http.StatusServiceUnavailable, "dashboard not configured")
		return
	}
	month, err := monthParam(r, s.store.CurrentMonth())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sum, err := s.dash.Summary(r.Context(), month)
	if err != nil {
		s.writeActionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

type recurringResponse struct {
	Transactions  []core.Transaction   `json:"transactions"`
	MonthlyImpact float64              `json:"monthlyImpact"`
	Upcoming      []aggregate.Upcoming `json:"upcoming"`
	DaysLeft      int                  `json:"daysLeftInMonth"`
}

// handleRecurring lists recurring transactions with their next due dates
// within ?days= (default 30).
func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	days := defaultUpcomingDays
	if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxUpcomingDays {
			writeError(w, r, http.StatusBadRequest, "days must be between 0 and 366")
			return
		}
		days = n
	}

	txs := s.store.Transactions()
	now := s.now()
	writeJSON(w, r, http.StatusOK, recurringResponse{
		Transactions:  aggregate.RecurringTransactions(txs),
		MonthlyImpact: aggregate.RecurringMonthlyImpact(txs),
		Upcoming:      aggregate.UpcomingRecurring(txs, now, time.Duration(days)*24*time.Hour),
		DaysLeft:      aggregate.DaysLeftInMonth(now),
	})
}

type searchResponse struct {
	Month      string             `json:"month"`
	Results    []core.Transaction `json:"results"`
	Categories []string           `json:"categories"`
}

// handleSearchExpenses filters the month's expenses by ?q= and ?category=.
func (s *Server) handleSearchExpenses(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r, s.store.CurrentMonth())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	category := sanitizeInput(q.Get("category"))
	if category == "" {
		category = aggregate.AllCategories
	}

	txs := s.store.Transactions()
	writeJSON(w, r, http.StatusOK, searchResponse{
		Month:      month,
		Results:    aggregate.SearchExpenses(txs, month, sanitizeInput(q.Get("q")), category),
		Categories: aggregate.ExpenseCategories(txs, month),
	})
}
