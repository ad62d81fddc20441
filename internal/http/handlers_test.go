package http

import (
	"math"
	"net/http"
	"testing"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/dashboard"
)

func TestTransactionsCRUD(t *testing.T) {
	srv, st := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":45.5,"category":"Food","description":" Lunch\u0007 ","date":"2024-03-09","tags":["work"]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[core.Transaction](t, rr)
	if created.ID != "id-1" || created.Completed || created.Description != "Lunch" {
		t.Fatalf("created = %+v", created)
	}
	if len(st.Transactions()) != 5 {
		t.Fatalf("store has %d transactions", len(st.Transactions()))
	}

	rr = do(t, srv, http.MethodPatch, "/api/transactions/id-1", `{"amount":50}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status=%d", rr.Code)
	}
	if got := decode[core.Transaction](t, rr); got.Amount != 50 || got.Category != "Food" {
		t.Errorf("patched = %+v", got)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions/id-1/toggle", "")
	if got := decode[core.Transaction](t, rr); !got.Completed {
		t.Error("toggle did not complete the transaction")
	}

	rr = do(t, srv, http.MethodDelete, "/api/transactions/id-1", "")
	if rr.Code != http.StatusNoContent || len(st.Transactions()) != 4 {
		t.Fatalf("delete status=%d, len=%d", rr.Code, len(st.Transactions()))
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	srv, st := newTestServer(t)
	before := st.Snapshot()

	requests := []struct{ method, path, body string }{
		{http.MethodPatch, "/api/transactions/nope", `{"amount":1}`},
		{http.MethodDelete, "/api/transactions/nope", ""},
		{http.MethodPost, "/api/transactions/nope/toggle", ""},
		{http.MethodPatch, "/api/budgets/nope", `{"amount":1}`},
		{http.MethodPatch, "/api/goals/nope", `{"name":"x"}`},
		{http.MethodDelete, "/api/goals/nope", ""},
	}
	for _, req := range requests {
		t.Run(req.method+" "+req.path, func(t *testing.T) {
			if rr := do(t, srv, req.method, req.path, req.body); rr.Code != http.StatusNoContent {
				t.Errorf("status=%d, want 204", rr.Code)
			}
		})
	}

	after := st.Snapshot()
	if len(after.Transactions) != len(before.Transactions) || &after.Transactions[0] != &before.Transactions[0] {
		t.Error("transactions changed")
	}
	if &after.Budgets[0] != &before.Budgets[0] || &after.Goals[0] != &before.Goals[0] {
		t.Error("budgets or goals changed")
	}
}

func TestMalformedBodies(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"bad json", http.MethodPost, "/api/transactions", `{"type":`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/goals", "", http.StatusBadRequest},
		{"unknown field", http.MethodPatch, "/api/settings", `{"colour":"red"}`, http.StatusBadRequest},
		{"bad type", http.MethodPost, "/api/transactions", `{"type":"gift","amount":1,"date":"2024-03-01"}`, http.StatusUnprocessableEntity},
		{"bad date", http.MethodPost, "/api/transactions", `{"type":"income","amount":1,"date":"03/01/2024"}`, http.StatusUnprocessableEntity},
		{"negative amount", http.MethodPost, "/api/budgets", `{"category":"Food","amount":-1,"month":"2024-03"}`, http.StatusUnprocessableEntity},
		{"bad budget month", http.MethodPost, "/api/budgets", `{"category":"Food","amount":1,"month":"2024-3"}`, http.StatusUnprocessableEntity},
		{"goal without name", http.MethodPost, "/api/goals", `{"targetAmount":1,"deadline":"2024-12-31"}`, http.StatusUnprocessableEntity},
		{"bad month cursor", http.MethodPut, "/api/month", `{"month":"2024-3"}`, http.StatusBadRequest},
		{"bad month query", http.MethodGet, "/api/dashboard?month=March", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d, want %d, body=%s", rr.Code, tt.want, rr.Body.String())
			}
			if body := decode[errorBody](t, rr); body.Error == "" || body.RequestID == "" {
				t.Errorf("error body = %+v", body)
			}
		})
	}
}

func TestListTransactionsByMonth(t *testing.T) {
	srv, _ := newTestServer(t)

	all := decode[[]core.Transaction](t, do(t, srv, http.MethodGet, "/api/transactions", ""))
	march := decode[[]core.Transaction](t, do(t, srv, http.MethodGet, "/api/transactions?month=2024-03", ""))
	if len(all) != 4 || len(march) != 3 {
		t.Errorf("len(all)=%d len(march)=%d", len(all), len(march))
	}
}

func TestBudgetsDeriveSpend(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/budgets?month=2024-03", "")
	views := decode[[]struct {
		ID         string   `json:"id"`
		Spent      float64  `json:"spent"`
		Remaining  float64  `json:"remaining"`
		Percentage *float64 `json:"percentage"`
	}](t, rr)
	if len(views) != 1 || views[0].ID != "b1" {
		t.Fatalf("views = %+v", views)
	}
	if views[0].Spent != 170 || views[0].Remaining != 30 || *views[0].Percentage != 85 {
		t.Errorf("view = %+v", views[0])
	}

	rr = do(t, srv, http.MethodPost, "/api/budgets", `{"category":"Food","amount":300,"month":"2024-03"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d", rr.Code)
	}
	all := decode[[]aggregate.BudgetView](t, do(t, srv, http.MethodGet, "/api/budgets", ""))
	if len(all) != 3 {
		t.Errorf("duplicate category budget not accepted, len=%d", len(all))
	}

	rr = do(t, srv, http.MethodPatch, "/api/budgets/b2", `{"amount":150}`)
	if got := decode[core.Budget](t, rr); got.Amount != 150 || got.Category != "Transport" {
		t.Errorf("patched = %+v", got)
	}
}

func TestGoalsProgress(t *testing.T) {
	srv, _ := newTestServer(t)

	type goalJSON struct {
		ID       string   `json:"id"`
		Progress *float64 `json:"progress"`
	}
	list := decode[struct {
		Goals       []goalJSON `json:"goals"`
		TotalTarget float64    `json:"totalTarget"`
	}](t, do(t, srv, http.MethodGet, "/api/goals", ""))

	if len(list.Goals) != 2 || list.TotalTarget != 1000 {
		t.Fatalf("list = %+v", list)
	}
	if list.Goals[0].Progress == nil || *list.Goals[0].Progress != 25 {
		t.Errorf("progress = %v", list.Goals[0].Progress)
	}
	if list.Goals[1].Progress != nil {
		t.Errorf("0/0 progress should encode as null, got %v", *list.Goals[1].Progress)
	}

	rr := do(t, srv, http.MethodPost, "/api/goals", `{"name":"Car","targetAmount":100,"currentAmount":150,"deadline":"2025-01-01"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d", rr.Code)
	}
	if g := decode[goalView](t, rr); math.Abs(float64(g.Progress)-150) > 1e-9 {
		t.Errorf("progress = %v, want unclamped 150", g.Progress)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/goals/g1", ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete status=%d", rr.Code)
	}
}

func TestSettingsMerge(t *testing.T) {
	srv, st := newTestServer(t)

	rr := do(t, srv, http.MethodPatch, "/api/settings", `{"currency":"USD","notifications":{"summaries":false}}`)
	got := decode[core.Settings](t, rr)
	if got.Currency != "USD" || got.Theme != core.ThemeLight {
		t.Errorf("settings = %+v", got)
	}
	if got.Notifications.BillReminders != nil {
		t.Error("shallow merge should drop unspecified notification toggles")
	}

	rr = do(t, srv, http.MethodPatch, "/api/settings/notifications", `{"billReminders":true}`)
	got = decode[core.Settings](t, rr)
	if !core.On(got.Notifications.BillReminders) || got.Notifications.Summaries == nil || *got.Notifications.Summaries {
		t.Errorf("notifications = %+v", got.Notifications)
	}
	if st.Settings().Currency != "USD" {
		t.Error("store not updated")
	}
}

func TestMonthCursor(t *testing.T) {
	srv, st := newTestServer(t)

	tests := []struct {
		method, path, body, want string
	}{
		{http.MethodPost, "/api/month/next", "", "2024-04"},
		{http.MethodPost, "/api/month/prev", "", "2024-03"},
		{http.MethodPost, "/api/month/prev", "", "2024-02"},
		{http.MethodPut, "/api/month", `{"month":"2023-12"}`, "2023-12"},
		{http.MethodPost, "/api/month/next", "", "2024-01"},
		{http.MethodGet, "/api/month", "", "2024-01"},
	}
	for _, tt := range tests {
		rr := do(t, srv, tt.method, tt.path, tt.body)
		if got := decode[monthBody](t, rr).Month; got != tt.want {
			t.Fatalf("%s %s = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}

	st.Actions().SetCurrentMonth("garbage")
	if rr := do(t, srv, http.MethodPost, "/api/month/next", ""); rr.Code != http.StatusConflict {
		t.Errorf("status=%d, want 409", rr.Code)
	}
	if st.CurrentMonth() != "garbage" {
		t.Error("cursor changed after failed navigation")
	}
}

func TestDashboard(t *testing.T) {
	srv, _ := newTestServer(t)

	sum := decode[dashboard.Summary](t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	if sum.Month != "2024-03" || sum.Totals.Expenses != 200 || sum.Totals.Income != 1000 {
		t.Errorf("summary = %+v", sum)
	}

	do(t, srv, http.MethodPost, "/api/transactions", `{"type":"expense","amount":50,"category":"Food","date":"2024-03-09"}`)
	sum = decode[dashboard.Summary](t, do(t, srv, http.MethodGet, "/api/dashboard?month=2024-03", ""))
	if sum.Totals.Expenses != 250 {
		t.Errorf("summary not refreshed after write: expenses=%v", sum.Totals.Expenses)
	}
}

func TestRecurringAndSearch(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := decode[recurringResponse](t, do(t, srv, http.MethodGet, "/api/recurring", ""))
	if len(rec.Transactions) != 1 || rec.MonthlyImpact != 1000 {
		t.Errorf("recurring = %+v", rec)
	}
	if len(rec.Upcoming) != 1 || rec.Upcoming[0].Due != "2024-04-01" {
		t.Errorf("upcoming = %+v", rec.Upcoming)
	}
	if rec.DaysLeft != 21 {
		t.Errorf("days left = %d", rec.DaysLeft)
	}
	if rr := do(t, srv, http.MethodGet, "/api/recurring?days=-1", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("status=%d", rr.Code)
	}

	res := decode[searchResponse](t, do(t, srv, http.MethodGet, "/api/expenses?q=MARKET", ""))
	if len(res.Results) != 1 || res.Results[0].ID != "3" {
		t.Errorf("results = %+v", res.Results)
	}
	if len(res.Categories) != 2 || res.Categories[0] != "Food" {
		t.Errorf("categories = %v", res.Categories)
	}

	res = decode[searchResponse](t, do(t, srv, http.MethodGet, "/api/expenses?category=Transport", ""))
	if len(res.Results) != 1 || res.Results[0].ID != "4" {
		t.Errorf("category filter = %+v", res.Results)
	}
}
