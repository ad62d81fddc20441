// Package core holds the finance domain types shared by the store, the
// persistence layer and the derived aggregation rules.
package core

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Weekly  RecurrenceType = "weekly"
	Monthly RecurrenceType = "monthly"
	Yearly  RecurrenceType = "yearly"

	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type (
	TransactionType string

	RecurrenceType string

	Theme string

	// Transaction is one dated income or expense record. Amount is a
	// magnitude; the sign is implied by Type.
	Transaction struct {
		ID             string          `json:"id"`
		Type           TransactionType `json:"type"`
		Amount         float64         `json:"amount"`
		Category       string          `json:"category"`
		Description    string          `json:"description"`
		Date           string          `json:"date"` // YYYY-MM-DD
		Tags           []string        `json:"tags,omitempty"`
		Recurring      bool            `json:"recurring,omitempty"`
		RecurrenceType RecurrenceType  `json:"recurrenceType,omitempty"`
		Completed      bool            `json:"completed"`
	}

	// Budget is a spending ceiling for one category in one month. Spent is a
	// snapshot taken at creation time and is not kept in sync with
	// transactions; use the aggregate package for the authoritative value.
	Budget struct {
		ID       string  `json:"id"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Spent    float64 `json:"spent"`
		Month    string  `json:"month"` // YYYY-MM
	}

	// Goal is a savings target with a deadline. CurrentAmount only changes
	// through explicit updates.
	Goal struct {
		ID            string  `json:"id"`
		Name          string  `json:"name"`
		TargetAmount  float64 `json:"targetAmount"`
		CurrentAmount float64 `json:"currentAmount"`
		Deadline      string  `json:"deadline"` // YYYY-MM-DD
		Description   string  `json:"description,omitempty"`
	}

	// Notifications holds display-only preference toggles. A nil field means
	// the toggle is absent, which happens when a partial object replaced the
	// whole nested value.
	Notifications struct {
		Summaries     *bool `json:"summaries,omitempty"`
		BillReminders *bool `json:"billReminders,omitempty"`
		GoalReminders *bool `json:"goalReminders,omitempty"`
	}

	Settings struct {
		Currency      string        `json:"currency"`
		Theme         Theme         `json:"theme"`
		Categories    []string      `json:"categories"`
		Tags          []string      `json:"tags"`
		Notifications Notifications `json:"notifications"`
	}

	// State is the whole tree owned by the store and persisted as one record.
	State struct {
		Transactions []Transaction `json:"transactions"`
		Budgets      []Budget      `json:"budgets"`
		Goals        []Goal        `json:"goals"`
		Settings     Settings      `json:"settings"`
		CurrentMonth string        `json:"currentMonth"`
	}
)

// Inputs for the add actions: the entity minus its generated fields.
type (
	TransactionInput struct {
		Type           TransactionType `json:"type"`
		Amount         float64         `json:"amount"`
		Category       string          `json:"category"`
		Description    string          `json:"description"`
		Date           string          `json:"date"`
		Tags           []string        `json:"tags,omitempty"`
		Recurring      bool            `json:"recurring,omitempty"`
		RecurrenceType RecurrenceType  `json:"recurrenceType,omitempty"`
	}

	BudgetInput struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Spent    float64 `json:"spent"`
		Month    string  `json:"month"`
	}

	GoalInput struct {
		Name          string  `json:"name"`
		TargetAmount  float64 `json:"targetAmount"`
		CurrentAmount float64 `json:"currentAmount"`
		Deadline      string  `json:"deadline"`
		Description   string  `json:"description,omitempty"`
	}
)

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() float64 {
	if t.Type == Income {
		return t.Amount
	}
	return -t.Amount
}

// Valid reports whether rt is one of the known cadences.
func (rt RecurrenceType) Valid() bool {
	switch rt {
	case Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// Bool returns a pointer to b, for building Notifications and patches.
func Bool(b bool) *bool {
	return &b
}

// AllEnabled returns notifications with every toggle switched on.
func AllEnabled() Notifications {
	return Notifications{
		Summaries:     Bool(true),
		BillReminders: Bool(true),
		GoalReminders: Bool(true),
	}
}

// On treats an absent toggle as off.
func On(toggle *bool) bool {
	return toggle != nil && *toggle
}
