package aggregate

import "fintrack/internal/core"

// DefaultAlertThreshold is the usage percentage above which a budget is
// flagged.
const DefaultAlertThreshold = 80.0

// BudgetView is a budget with its spend recomputed from transactions.
// Percentage is not clamped and is NaN or +Inf for a zero ceiling.
type BudgetView struct {
	core.Budget
	Spent      float64 `json:"spent"`
	Remaining  float64 `json:"remaining"`
	Percentage Ratio   `json:"percentage"`
}

// BudgetsForMonth returns the budgets scoped to month with derived spend.
func BudgetsForMonth(budgets []core.Budget, txs []core.Transaction, month string) []BudgetView {
	out := make([]BudgetView, 0)
	for _, b := range budgets {
		if b.Month != month {
			continue
		}
		out = append(out, ViewBudget(b, txs))
	}
	return out
}

// ViewBudget derives the live figures of a single budget.
func ViewBudget(b core.Budget, txs []core.Transaction) BudgetView {
	spent := SpentForCategoryMonth(txs, b.Category, b.Month)
	return BudgetView{
		Budget:     b,
		Spent:      spent,
		Remaining:  difference(b.Amount, spent),
		Percentage: Ratio(spent / b.Amount * 100),
	}
}

// BudgetTotals sums ceilings and derived spend over views.
func BudgetTotals(views []BudgetView) (budgeted, spent float64) {
	var b, s sum
	for _, v := range views {
		b = b.add(v.Amount)
		s = s.add(v.Spent)
	}
	return b.float(), s.float()
}

// BudgetAlerts returns the views whose usage is strictly above threshold.
func BudgetAlerts(views []BudgetView, threshold float64) []BudgetView {
	out := make([]BudgetView, 0)
	for _, v := range views {
		if float64(v.Percentage) > threshold {
			out = append(out, v)
		}
	}
	return out
}
