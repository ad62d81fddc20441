package core

import "time"

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		Currency: "NGN",
		Theme:    ThemeLight,
		Categories: []string{
			"Food",
			"Transport",
			"Entertainment",
			"Utilities",
			"Healthcare",
			"Shopping",
			"Salary",
			"Freelance",
		},
		Tags:          []string{"essential", "leisure", "work", "transport", "health"},
		Notifications: AllEnabled(),
	}
}

// DefaultState is the built-in dataset used on first start and whenever the
// persisted record is missing or unreadable. Dates are anchored to the month
// of now.
func DefaultState(now time.Time) State {
	month := MonthOf(now)
	return State{
		Transactions: []Transaction{
			{ID: "1", Type: Income, Amount: 150000, Category: "Salary", Description: "Monthly salary", Date: month + "-01", Tags: []string{"work"}, Completed: true},
			{ID: "2", Type: Expense, Amount: 25000, Category: "Food", Description: "Groceries", Date: month + "-02", Tags: []string{"essential"}},
			{ID: "3", Type: Expense, Amount: 15000, Category: "Transport", Description: "Fuel", Date: month + "-03", Tags: []string{"transport"}, Completed: true},
			{ID: "4", Type: Expense, Amount: 8000, Category: "Entertainment", Description: "Movie tickets", Date: month + "-04", Tags: []string{"leisure"}},
		},
		Budgets: []Budget{
			{ID: "1", Category: "Food", Amount: 40000, Spent: 25000, Month: month},
			{ID: "2", Category: "Transport", Amount: 20000, Spent: 15000, Month: month},
			{ID: "3", Category: "Entertainment", Amount: 15000, Spent: 8000, Month: month},
			{ID: "4", Category: "Utilities", Amount: 25000, Spent: 0, Month: month},
		},
		Goals: []Goal{
			{ID: "1", Name: "Emergency Fund", TargetAmount: 500000, CurrentAmount: 150000, Deadline: "2024-12-31", Description: "6 months of expenses"},
			{ID: "2", Name: "Vacation", TargetAmount: 200000, CurrentAmount: 75000, Deadline: "2024-08-15", Description: "Trip to Dubai"},
		},
		Settings:     DefaultSettings(),
		CurrentMonth: month,
	}
}
