package core

import "slices"

// Patches carry the fields of a partial update. A nil field is "not
// supplied" and leaves the current value untouched. IDs are never patchable.
type (
	TransactionPatch struct {
		Type           *TransactionType `json:"type,omitempty"`
		Amount         *float64         `json:"amount,omitempty"`
		Category       *string          `json:"category,omitempty"`
		Description    *string          `json:"description,omitempty"`
		Date           *string          `json:"date,omitempty"`
		Tags           *[]string        `json:"tags,omitempty"`
		Recurring      *bool            `json:"recurring,omitempty"`
		RecurrenceType *RecurrenceType  `json:"recurrenceType,omitempty"`
		Completed      *bool            `json:"completed,omitempty"`
	}

	BudgetPatch struct {
		Category *string  `json:"category,omitempty"`
		Amount   *float64 `json:"amount,omitempty"`
		Spent    *float64 `json:"spent,omitempty"`
		Month    *string  `json:"month,omitempty"`
	}

	GoalPatch struct {
		Name          *string  `json:"name,omitempty"`
		TargetAmount  *float64 `json:"targetAmount,omitempty"`
		CurrentAmount *float64 `json:"currentAmount,omitempty"`
		Deadline      *string  `json:"deadline,omitempty"`
		Description   *string  `json:"description,omitempty"`
	}

	// SettingsPatch is merged one level deep: a supplied Notifications value
	// replaces the nested object as a whole.
	SettingsPatch struct {
		Currency      *string        `json:"currency,omitempty"`
		Theme         *Theme         `json:"theme,omitempty"`
		Categories    *[]string      `json:"categories,omitempty"`
		Tags          *[]string      `json:"tags,omitempty"`
		Notifications *Notifications `json:"notifications,omitempty"`
	}

	// NotificationsPatch is merged field by field into the current toggles.
	NotificationsPatch struct {
		Summaries     *bool `json:"summaries,omitempty"`
		BillReminders *bool `json:"billReminders,omitempty"`
		GoalReminders *bool `json:"goalReminders,omitempty"`
	}
)

func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Tags != nil {
		t.Tags = CloneTags(*p.Tags)
	}
	if p.Recurring != nil {
		t.Recurring = *p.Recurring
	}
	if p.RecurrenceType != nil {
		t.RecurrenceType = *p.RecurrenceType
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

func (p BudgetPatch) Apply(b Budget) Budget {
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Spent != nil {
		b.Spent = *p.Spent
	}
	if p.Month != nil {
		b.Month = *p.Month
	}
	return b
}

func (p GoalPatch) Apply(g Goal) Goal {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.Deadline != nil {
		g.Deadline = *p.Deadline
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	return g
}

func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Categories != nil {
		s.Categories = slices.Clone(*p.Categories)
	}
	if p.Tags != nil {
		s.Tags = slices.Clone(*p.Tags)
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	return s
}

func (p NotificationsPatch) Apply(n Notifications) Notifications {
	if p.Summaries != nil {
		n.Summaries = Bool(*p.Summaries)
	}
	if p.BillReminders != nil {
		n.BillReminders = Bool(*p.BillReminders)
	}
	if p.GoalReminders != nil {
		n.GoalReminders = Bool(*p.GoalReminders)
	}
	return n
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// CloneTags copies a transaction's tags. An empty list becomes nil, which is
// how an omitted "tags" key decodes.
func CloneTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	return slices.Clone(tags)
}
