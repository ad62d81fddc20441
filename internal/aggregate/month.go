// Package aggregate derives read models from the raw state. Every function
// is pure and recomputed on each call; nothing here is cached or stored.
//
// Month scoping is string-prefix matching of a YYYY-MM cursor against a
// YYYY-MM-DD date. A cursor that is not zero-padded matches nothing.
package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Totals are the income and expense sums of one month.
type Totals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Savings  float64 `json:"savings"`
}

// CategoryAmount is the expense total of one category.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// InMonth reports whether date falls in month by prefix.
func InMonth(date, month string) bool {
	return strings.HasPrefix(date, month)
}

// FilterMonth returns the transactions dated in month, in stored order.
func FilterMonth(txs []core.Transaction, month string) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if InMonth(t.Date, month) {
			out = append(out, t)
		}
	}
	return out
}

// SpentForCategoryMonth is the authoritative spent figure for a budget: the
// sum of expense amounts in category dated in month. Any stored Budget.Spent
// is ignored.
func SpentForCategoryMonth(txs []core.Transaction, category, month string) float64 {
	var spent sum
	for _, t := range txs {
		if t.Type == core.Expense && t.Category == category && InMonth(t.Date, month) {
			spent = spent.add(t.Amount)
		}
	}
	return spent.float()
}

func MonthTotals(txs []core.Transaction, month string) Totals {
	var income, expenses sum
	for _, t := range txs {
		if !InMonth(t.Date, month) {
			continue
		}
		switch t.Type {
		case core.Income:
			income = income.add(t.Amount)
		case core.Expense:
			expenses = expenses.add(t.Amount)
		}
	}
	return Totals{
		Income:   income.float(),
		Expenses: expenses.float(),
		Savings:  income.sub(expenses).float(),
	}
}

// ExpensesByCategory groups the month's expenses by category, largest first.
// Equal amounts are ordered by category name.
func ExpensesByCategory(txs []core.Transaction, month string) []CategoryAmount {
	sums := categorySums(txs, month)
	out := make([]CategoryAmount, 0, len(sums))
	for category, total := range sums {
		out = append(out, CategoryAmount{Category: category, Amount: total.float()})
	}
	slices.SortFunc(out, func(a, b CategoryAmount) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// TopCategory returns the category with the largest spend in month.
func TopCategory(txs []core.Transaction, month string) (CategoryAmount, bool) {
	byCategory := ExpensesByCategory(txs, month)
	if len(byCategory) == 0 {
		return CategoryAmount{}, false
	}
	return byCategory[0], true
}

func categorySums(txs []core.Transaction, month string) map[string]sum {
	sums := make(map[string]sum)
	for _, t := range txs {
		if t.Type != core.Expense || !InMonth(t.Date, month) {
			continue
		}
		sums[t.Category] = sums[t.Category].add(t.Amount)
	}
	return sums
}

// SpendingChange is the percentage change of month's expenses against the
// previous month. It is 0 when the previous month had no spend.
func SpendingChange(txs []core.Transaction, month string) (float64, error) {
	prev, err := core.PrevMonth(month)
	if err != nil {
		return 0, err
	}
	current := MonthTotals(txs, month).Expenses
	previous := MonthTotals(txs, prev).Expenses
	if !(previous > 0) {
		return 0, nil
	}
	if !finite(current) || !finite(previous) {
		return (current - previous) / previous * 100, nil
	}
	c, p := decimal.NewFromFloat(current), decimal.NewFromFloat(previous)
	return c.Sub(p).Div(p).Mul(decimal.NewFromInt(100)).InexactFloat64(), nil
}

// AllCategories disables the category filter of SearchExpenses.
const AllCategories = "all"

// SearchExpenses returns the month's expenses whose description or category
// contains term, case-insensitively, optionally restricted to one category.
func SearchExpenses(txs []core.Transaction, month, term, category string) []core.Transaction {
	needle := strings.ToLower(term)
	out := make([]core.Transaction, 0)
	for _, t := range txs {
		if t.Type != core.Expense || !InMonth(t.Date, month) {
			continue
		}
		if category != "" && category != AllCategories && t.Category != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.Description), needle) &&
			!strings.Contains(strings.ToLower(t.Category), needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ExpenseCategories lists the distinct categories of the month's expenses,
// sorted.
func ExpenseCategories(txs []core.Transaction, month string) []string {
	out := make([]string, 0)
	for category := range categorySums(txs, month) {
		out = append(out, category)
	}
	slices.Sort(out)
	return out
}

// RecentTransactions returns up to n transactions, newest date first. Rows
// sharing a date keep the most recently added first.
func RecentTransactions(txs []core.Transaction, n int) []core.Transaction {
	if n <= 0 {
		return []core.Transaction{}
	}
	type indexed struct {
		tx  core.Transaction
		pos int
	}
	rows := make([]indexed, len(txs))
	for i, t := range txs {
		rows[i] = indexed{tx: t, pos: i}
	}
	slices.SortFunc(rows, func(a, b indexed) int {
		if c := cmp.Compare(b.tx.Date, a.tx.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.pos, a.pos)
	})
	out := make([]core.Transaction, 0, min(n, len(rows)))
	for _, r := range rows[:min(n, len(rows))] {
		out = append(out, r.tx)
	}
	return out
}

// DaysLeftInMonth counts the days after now until the end of its month.
func DaysLeftInMonth(now time.Time) int {
	last := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	return max(0, last-now.Day())
}
