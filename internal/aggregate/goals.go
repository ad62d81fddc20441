package aggregate

import "fintrack/internal/core"

// GoalProgress is currentAmount / targetAmount * 100 in plain float
// arithmetic. It is not clamped: above 100 is possible, 0/0 yields NaN and
// x/0 yields +Inf.
func GoalProgress(g core.Goal) float64 {
	return g.CurrentAmount / g.TargetAmount * 100
}

// GoalTotals sums targets and progress over all goals.
func GoalTotals(goals []core.Goal) (target, current float64) {
	var t, c sum
	for _, g := range goals {
		t = t.add(g.TargetAmount)
		c = c.add(g.CurrentAmount)
	}
	return t.float(), c.float()
}
