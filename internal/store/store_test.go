package store

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/ids"
	"fintrack/internal/log"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type recordingSaver struct {
	mu     sync.Mutex
	states []core.State
}

func (r *recordingSaver) Save(state core.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingSaver) last() core.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func emptyState() core.State {
	return core.State{
		Transactions: []core.Transaction{},
		Budgets:      []core.Budget{},
		Goals:        []core.Goal{},
		Settings:     core.DefaultSettings(),
		CurrentMonth: "2024-03",
	}
}

func newTestStore(t *testing.T, state core.State) (*Store, *recordingSaver) {
	t.Helper()
	saver := &recordingSaver{}
	s := New(
		WithInitialState(state),
		WithSaver(saver),
		WithIDGenerator(ids.NewSequence("id")),
		WithClock(func() time.Time { return fixedNow }),
	)
	return s, saver
}

func TestNewDefaultsToSeedData(t *testing.T) {
	s := New(WithClock(func() time.Time { return fixedNow }))

	assert.Equal(t, "2024-03", s.CurrentMonth())
	assert.Len(t, s.Transactions(), 4)
	assert.Len(t, s.Budgets(), 4)
	assert.Len(t, s.Goals(), 2)
	assert.Equal(t, "NGN", s.Settings().Currency)
}

func TestAddTransaction(t *testing.T) {
	s, saver := newTestStore(t, emptyState())

	tx := s.Actions().AddTransaction(core.TransactionInput{
		Type:        core.Expense,
		Amount:      50,
		Category:    "Food",
		Description: "Lunch",
		Date:        "2024-03-04",
		Tags:        []string{"essential"},
	})

	require.Len(t, s.Transactions(), 1)
	assert.Equal(t, "id-1", tx.ID)
	assert.False(t, tx.Completed)
	assert.Equal(t, tx, s.Transactions()[0])
	assert.Equal(t, 1, saver.count())
	assert.Equal(t, s.Snapshot(), saver.last())
}

func TestAddTransactionIDsAreUnique(t *testing.T) {
	state := emptyState()
	state.Transactions = []core.Transaction{{ID: "id-1", Type: core.Income, Amount: 1, Date: "2024-03-01"}}
	s, _ := newTestStore(t, state)

	tx := s.Actions().AddTransaction(core.TransactionInput{Type: core.Expense, Amount: 2, Date: "2024-03-02"})

	assert.Equal(t, "id-2", tx.ID)
}

func TestUniqueIDWithStuckGenerator(t *testing.T) {
	state := emptyState()
	state.Goals = []core.Goal{{ID: "same"}}
	s := New(
		WithInitialState(state),
		WithIDGenerator(ids.Func(func() string { return "same" })),
	)

	g := s.Actions().AddGoal(core.GoalInput{Name: "Car"})

	assert.NotEqual(t, "same", g.ID)
	assert.Len(t, s.Goals(), 2)
}

func TestAddTransactionDoesNotValidate(t *testing.T) {
	s, _ := newTestStore(t, emptyState())

	tx := s.Actions().AddTransaction(core.TransactionInput{Type: core.Expense, Amount: -10, Category: "Nope", Date: "not-a-date"})

	assert.Equal(t, -10.0, tx.Amount)
	assert.Len(t, s.Transactions(), 1)
}

func TestDeleteTransaction(t *testing.T) {
	s, saver := newTestStore(t, emptyState())
	a := s.Actions()
	first := a.AddTransaction(core.TransactionInput{Type: core.Expense, Amount: 1})
	second := a.AddTransaction(core.TransactionInput{Type: core.Expense, Amount: 2})

	assert.True(t, a.DeleteTransaction(first.ID))
	assert.Equal(t, []core.Transaction{second}, s.Transactions())

	saves := saver.count()
	assert.False(t, a.DeleteTransaction("missing"))
	assert.Equal(t, []core.Transaction{second}, s.Transactions())
	assert.Equal(t, saves, saver.count(), "no-op must not persist")
}

func TestUpdateTransaction(t *testing.T) {
	s, _ := newTestStore(t, emptyState())
	a := s.Actions()
	tx := a.AddTransaction(core.TransactionInput{Type: core.Expense, Amount: 10, Category: "Food", Description: "Lunch"})

	ok := a.UpdateTransaction(tx.ID, core.TransactionPatch{Amount: core.Ptr(25.0), Tags: &[]string{"work"}})
	require.True(t, ok)

	got := s.Transactions()[0]
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, 25.0, got.Amount)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, "Lunch", got.Description)
	assert.Equal(t, []string{"work"}, got.Tags)

	assert.False(t, a.UpdateTransaction("missing", core.TransactionPatch{Amount: core.Ptr(1.0)}))
}

func TestToggleTransactionComplete(t *testing.T) {
	s, _ := newTestStore(t, emptyState())
	a := s.Actions()
	tx := a.AddTransaction(core.TransactionInput{Type: core.Expense, Amount: 10})

	require.True(t, a.ToggleTransactionComplete(tx.ID))
	assert.True(t, s.Transactions()[0].Completed)
	require.True(t, a.ToggleTransactionComplete(tx.ID))
	assert.False(t, s.Transactions()[0].Completed)

	assert.False(t, a.ToggleTransactionComplete("missing"))
}

func TestBudgets(t *testing.T) {
	s, _ := newTestStore(t, emptyState())
	a := s.Actions()

	first := a.AddBudget(core.BudgetInput{Category: "Food", Amount: 200, Month: "2024-03"})
	dup := a.AddBudget(core.BudgetInput{Category: "Food", Amount: 300, Month: "2024-03"})
	assert.NotEqual(t, first.ID, dup.ID)
	assert.Len(t, s.Budgets(), 2, "duplicate category and month is allowed")

	require.True(t, a.UpdateBudget(first.ID, core.BudgetPatch{Amount: core.Ptr(250.0)}))
	assert.Equal(t, 250.0, s.Budgets()[0].Amount)
	assert.Equal(t, "Food", s.Budgets()[0].Category)

	assert.False(t, a.UpdateBudget("missing", core.BudgetPatch{Amount: core.Ptr(1.0)}))
}

func TestGoals(t *testing.T) {
	s, _ := newTestStore(t, emptyState())
	a := s.Actions()

	g := a.AddGoal(core.GoalInput{Name: "Car", TargetAmount: 1000, CurrentAmount: 100, Deadline: "2025-01-01"})
	require.True(t, a.UpdateGoal(g.ID, core.GoalPatch{CurrentAmount: core.Ptr(400.0)}))
	assert.Equal(t, 400.0, s.Goals()[0].CurrentAmount)
	assert.Equal(t, "Car", s.Goals()[0].Name)

	assert.False(t, a.DeleteGoal("missing"))
	require.True(t, a.DeleteGoal(g.ID))
	assert.Empty(t, s.Goals())
}

func TestUpdateSettingsReplacesNotificationsWholesale(t *testing.T) {
	s, _ := newTestStore(t, emptyState())

	s.Actions().UpdateSettings(core.SettingsPatch{
		Notifications: &core.Notifications{Summaries: core.Bool(false)},
	})

	n := s.Settings().Notifications
	require.NotNil(t, n.Summaries)
	assert.False(t, *n.Summaries)
	assert.Nil(t, n.BillReminders)
	assert.Nil(t, n.GoalReminders)
	assert.Equal(t, "NGN", s.Settings().Currency)
}

func TestUpdateSettingsShallowFields(t *testing.T) {
	s, _ := newTestStore(t, emptyState())

	s.Actions().UpdateSettings(core.SettingsPatch{
		Currency: core.Ptr("USD"),
		Theme:    core.Ptr(core.ThemeDark),
	})

	got := s.Settings()
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, core.ThemeDark, got.Theme)
	assert.Equal(t, core.DefaultSettings().Categories, got.Categories)
	assert.Equal(t, core.AllEnabled(), got.Notifications)
}

func TestUpdateNotificationsMergesToggles(t *testing.T) {
	s, _ := newTestStore(t, emptyState())

	s.Actions().UpdateNotifications(core.NotificationsPatch{BillReminders: core.Bool(false)})

	n := s.Settings().Notifications
	assert.True(t, core.On(n.Summaries))
	assert.False(t, core.On(n.BillReminders))
	assert.True(t, core.On(n.GoalReminders))
}

func TestMonthCursor(t *testing.T) {
	s, _ := newTestStore(t, emptyState())
	a := s.Actions()

	a.SetCurrentMonth("2023-12")
	month, err := a.NextMonth()
	require.NoError(t, err)
	assert.Equal(t, "2024-01", month)
	assert.Equal(t, "2024-01", s.CurrentMonth())

	month, err = a.PrevMonth()
	require.NoError(t, err)
	assert.Equal(t, "2023-12", month)
}

func TestSetCurrentMonthStoresAnyValue(t *testing.T) {
	s, _ := newTestStore(t, emptyState())
	a := s.Actions()

	a.SetCurrentMonth("garbage")
	assert.Equal(t, "garbage", s.CurrentMonth())

	_, err := a.NextMonth()
	require.ErrorIs(t, err, core.ErrInvalidMonth)
	assert.Equal(t, "garbage", s.CurrentMonth())
}

func TestActionsAccessorIsStable(t *testing.T) {
	s, _ := newTestStore(t, emptyState())
	first := s.Actions()
	first.AddGoal(core.GoalInput{Name: "x"})
	assert.Same(t, first, s.Actions())
}

func TestSelectorsKeepIdentityForUntouchedSlices(t *testing.T) {
	s, _ := newTestStore(t, core.DefaultState(fixedNow))
	a := s.Actions()

	budgets := s.Budgets()
	goals := s.Goals()
	txs := s.Transactions()

	a.AddTransaction(core.TransactionInput{Type: core.Expense, Amount: 1})

	assert.Same(t, &budgets[0], &s.Budgets()[0])
	assert.Same(t, &goals[0], &s.Goals()[0])
	assert.NotSame(t, &txs[0], &s.Transactions()[0])

	assert.Len(t, txs, 4, "previously read slice is unchanged")
	assert.Len(t, s.Transactions(), 5)
}

func TestMutationsDoNotAliasReadSlices(t *testing.T) {
	s, _ := newTestStore(t, core.DefaultState(fixedNow))
	before := s.Transactions()
	id := before[1].ID

	s.Actions().ToggleTransactionComplete(id)

	assert.False(t, before[1].Completed)
	assert.True(t, s.Transactions()[1].Completed)
}

func TestSubscribeIsPerSlice(t *testing.T) {
	s, _ := newTestStore(t, emptyState())
	a := s.Actions()

	var txChanges, budgetChanges []Change
	unsubscribe := s.Subscribe(Transactions, func(c Change) { txChanges = append(txChanges, c) })
	s.Subscribe(Budgets, func(c Change) { budgetChanges = append(budgetChanges, c) })

	tx := a.AddTransaction(core.TransactionInput{Type: core.Expense, Amount: 1})
	a.UpdateSettings(core.SettingsPatch{Currency: core.Ptr("EUR")})
	a.DeleteTransaction("missing")

	require.Len(t, txChanges, 1)
	assert.Equal(t, Change{Slice: Transactions, Op: "add", ID: tx.ID, CurrentMonth: "2024-03", At: fixedNow}, txChanges[0])
	assert.Empty(t, budgetChanges)

	unsubscribe()
	unsubscribe()
	a.AddTransaction(core.TransactionInput{Type: core.Expense, Amount: 2})
	assert.Len(t, txChanges, 1)
}

func TestSavesFullStateAfterEachChange(t *testing.T) {
	s, saver := newTestStore(t, emptyState())
	a := s.Actions()

	a.AddBudget(core.BudgetInput{Category: "Food", Amount: 10, Month: "2024-03"})
	a.SetCurrentMonth("2024-04")
	a.UpdateNotifications(core.NotificationsPatch{Summaries: core.Bool(false)})

	require.Equal(t, 3, saver.count())
	last := saver.last()
	assert.Len(t, last.Budgets, 1)
	assert.Equal(t, "2024-04", last.CurrentMonth)
	assert.False(t, core.On(last.Settings.Notifications.Summaries))
}

func TestConcurrentActions(t *testing.T) {
	s, saver := newTestStore(t, emptyState())
	a := s.Actions()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.AddTransaction(core.TransactionInput{Type: core.Income, Amount: 1})
			_ = s.Transactions()
		}()
	}
	wg.Wait()

	assert.Len(t, s.Transactions(), 50)
	assert.Equal(t, 50, saver.count())
	assert.Len(t, saver.last().Transactions, 50)
}

func TestCommitLogsStructuredChange(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := New(WithLogger(logger), WithIDGenerator(ids.NewSequence("tx")))

	tx := s.Actions().AddTransaction(core.TransactionInput{Type: core.Expense, Amount: 5, Category: "Food", Date: "2024-03-01"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, log.ComponentStore, entry[log.FieldComponent])
	assert.Equal(t, string(Transactions), entry[log.FieldSlice])
	assert.Equal(t, "add", entry[log.FieldOperation])
	assert.Equal(t, tx.ID, entry[log.FieldEntityID])
}
