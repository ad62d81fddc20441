package store

import (
	"fmt"
	"slices"

	"fintrack/internal/core"
)

// Actions is the combined write surface of a Store. Entity mutations that
// name an unknown id are silent no-ops and report false.
type Actions struct {
	s *Store
}

// AddTransaction stores a new, not yet completed transaction under a fresh id.
func (a *Actions) AddTransaction(in core.TransactionInput) core.Transaction {
	var created core.Transaction
	a.s.commit(Transactions, "add", func(st *core.State) (string, bool) {
		created = core.Transaction{
			ID:             a.s.uniqueID(func(id string) bool { return indexOf(st.Transactions, id, txID) >= 0 }),
			Type:           in.Type,
			Amount:         in.Amount,
			Category:       in.Category,
			Description:    in.Description,
			Date:           in.Date,
			Tags:           core.CloneTags(in.Tags),
			Recurring:      in.Recurring,
			RecurrenceType: in.RecurrenceType,
			Completed:      false,
		}
		st.Transactions = appendCopy(st.Transactions, created)
		return created.ID, true
	})
	return created
}

func (a *Actions) UpdateTransaction(id string, patch core.TransactionPatch) bool {
	return a.s.commit(Transactions, "update", func(st *core.State) (string, bool) {
		next, ok := replaceAt(st.Transactions, id, txID, patch.Apply)
		st.Transactions = next
		return id, ok
	})
}

func (a *Actions) DeleteTransaction(id string) bool {
	return a.s.commit(Transactions, "delete", func(st *core.State) (string, bool) {
		next, ok := removeAll(st.Transactions, id, txID)
		st.Transactions = next
		return id, ok
	})
}

// ToggleTransactionComplete flips the completed flag of one transaction.
func (a *Actions) ToggleTransactionComplete(id string) bool {
	return a.s.commit(Transactions, "toggle", func(st *core.State) (string, bool) {
		next, ok := replaceAt(st.Transactions, id, txID, func(t core.Transaction) core.Transaction {
			t.Completed = !t.Completed
			return t
		})
		st.Transactions = next
		return id, ok
	})
}

// AddBudget stores a new budget. Duplicate category and month pairs are
// accepted.
func (a *Actions) AddBudget(in core.BudgetInput) core.Budget {
	var created core.Budget
	a.s.commit(Budgets, "add", func(st *core.State) (string, bool) {
		created = core.Budget{
			ID:       a.s.uniqueID(func(id string) bool { return indexOf(st.Budgets, id, budgetID) >= 0 }),
			Category: in.Category,
			Amount:   in.Amount,
			Spent:    in.Spent,
			Month:    in.Month,
		}
		st.Budgets = appendCopy(st.Budgets, created)
		return created.ID, true
	})
	return created
}

func (a *Actions) UpdateBudget(id string, patch core.BudgetPatch) bool {
	return a.s.commit(Budgets, "update", func(st *core.State) (string, bool) {
		next, ok := replaceAt(st.Budgets, id, budgetID, patch.Apply)
		st.Budgets = next
		return id, ok
	})
}

func (a *Actions) AddGoal(in core.GoalInput) core.Goal {
	var created core.Goal
	a.s.commit(Goals, "add", func(st *core.State) (string, bool) {
		created = core.Goal{
			ID:            a.s.uniqueID(func(id string) bool { return indexOf(st.Goals, id, goalID) >= 0 }),
			Name:          in.Name,
			TargetAmount:  in.TargetAmount,
			CurrentAmount: in.CurrentAmount,
			Deadline:      in.Deadline,
			Description:   in.Description,
		}
		st.Goals = appendCopy(st.Goals, created)
		return created.ID, true
	})
	return created
}

func (a *Actions) UpdateGoal(id string, patch core.GoalPatch) bool {
	return a.s.commit(Goals, "update", func(st *core.State) (string, bool) {
		next, ok := replaceAt(st.Goals, id, goalID, patch.Apply)
		st.Goals = next
		return id, ok
	})
}

func (a *Actions) DeleteGoal(id string) bool {
	return a.s.commit(Goals, "delete", func(st *core.State) (string, bool) {
		next, ok := removeAll(st.Goals, id, goalID)
		st.Goals = next
		return id, ok
	})
}

// UpdateSettings merges the patch one level deep. A supplied Notifications
// value replaces the stored one entirely; use UpdateNotifications to change a
// single toggle.
func (a *Actions) UpdateSettings(patch core.SettingsPatch) {
	a.s.commit(Settings, "update", func(st *core.State) (string, bool) {
		st.Settings = patch.Apply(st.Settings)
		return "", true
	})
}

// UpdateNotifications merges individual toggles into the stored
// notification preferences.
func (a *Actions) UpdateNotifications(patch core.NotificationsPatch) {
	a.s.commit(Settings, "notifications", func(st *core.State) (string, bool) {
		settings := st.Settings
		settings.Notifications = patch.Apply(settings.Notifications)
		st.Settings = settings
		return "", true
	})
}

// SetCurrentMonth moves the cursor. The value is stored as given.
func (a *Actions) SetCurrentMonth(month string) {
	a.s.commit(CurrentMonth, "set", func(st *core.State) (string, bool) {
		st.CurrentMonth = month
		return "", true
	})
}

// NextMonth advances the cursor by one calendar month and returns the new
// value. A cursor that is not a valid month is left untouched.
func (a *Actions) NextMonth() (string, error) {
	return a.shiftMonth("next", 1)
}

// PrevMonth moves the cursor back one calendar month.
func (a *Actions) PrevMonth() (string, error) {
	return a.shiftMonth("prev", -1)
}

func (a *Actions) shiftMonth(op string, delta int) (string, error) {
	var (
		month string
		err   error
	)
	a.s.commit(CurrentMonth, op, func(st *core.State) (string, bool) {
		month, err = core.ShiftMonth(st.CurrentMonth, delta)
		if err != nil {
			return "", false
		}
		st.CurrentMonth = month
		return "", true
	})
	if err != nil {
		return "", fmt.Errorf("shift month: %w", err)
	}
	return month, nil
}

const maxIDAttempts = 16

// uniqueID draws ids until one is not taken. A generator stuck on a taken
// value gets a numeric suffix instead of looping forever.
func (s *Store) uniqueID(taken func(string) bool) string {
	id := s.ids.NewID()
	for i := 1; taken(id); i++ {
		if i < maxIDAttempts {
			id = s.ids.NewID()
			continue
		}
		id = fmt.Sprintf("%s-%d", id, i)
	}
	return id
}

func txID(t core.Transaction) string { return t.ID }
func budgetID(b core.Budget) string  { return b.ID }
func goalID(g core.Goal) string      { return g.ID }

func indexOf[T any](items []T, id string, key func(T) string) int {
	return slices.IndexFunc(items, func(item T) bool { return key(item) == id })
}

// appendCopy returns a new slice so slices already handed out stay intact.
func appendCopy[T any](items []T, item T) []T {
	next := make([]T, len(items), len(items)+1)
	copy(next, items)
	return append(next, item)
}

// replaceAt applies fn to the first element with the given id, on a copy.
func replaceAt[T any](items []T, id string, key func(T) string, fn func(T) T) ([]T, bool) {
	i := indexOf(items, id, key)
	if i < 0 {
		return items, false
	}
	next := slices.Clone(items)
	next[i] = fn(next[i])
	return next, true
}

// removeAll drops every element with the given id, on a copy.
func removeAll[T any](items []T, id string, key func(T) string) ([]T, bool) {
	if indexOf(items, id, key) < 0 {
		return items, false
	}
	next := make([]T, 0, len(items)-1)
	for _, item := range items {
		if key(item) != id {
			next = append(next, item)
		}
	}
	return next, true
}
