package aggregate

import (
	"cmp"
	"slices"
	"time"

	"fintrack/internal/core"
)

// Recurring transactions are single rows tagged with a cadence. Nothing here
// creates future rows; next occurrences are computed for display only.

// RecurringTransactions returns the rows flagged as recurring.
func RecurringTransactions(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, t := range txs {
		if t.Recurring {
			out = append(out, t)
		}
	}
	return out
}

// RecurringMonthlyImpact nets income against expenses over recurring rows
// with a monthly cadence. Weekly and yearly rows do not contribute.
func RecurringMonthlyImpact(txs []core.Transaction) float64 {
	var impact sum
	for _, t := range txs {
		if t.Recurring && t.RecurrenceType == core.Monthly {
			impact = impact.add(t.Signed())
		}
	}
	return impact.float()
}

// Cadence computes the first occurrence of a series on or after a day.
type Cadence interface {
	// Next returns the first occurrence of the series starting at anchor
	// that falls on or after from. Both are calendar days at midnight UTC.
	Next(anchor, from time.Time) time.Time
}

type WeeklyCadence struct{}

func (WeeklyCadence) Next(anchor, from time.Time) time.Time {
	if !anchor.Before(from) {
		return anchor
	}
	days := int(from.Sub(anchor).Hours() / 24)
	weeks := (days + 6) / 7
	return anchor.AddDate(0, 0, 7*weeks)
}

// MonthlyCadence repeats on the anchor's day of month, falling back to the
// last day in shorter months.
type MonthlyCadence struct{}

func (MonthlyCadence) Next(anchor, from time.Time) time.Time {
	if !anchor.Before(from) {
		return anchor
	}
	months := (from.Year()-anchor.Year())*12 + int(from.Month()) - int(anchor.Month())
	for {
		candidate := dayInMonth(anchor.Year(), anchor.Month()+time.Month(months), anchor.Day())
		if !candidate.Before(from) {
			return candidate
		}
		months++
	}
}

// YearlyCadence repeats on the anchor's month and day; 29 February falls
// back to 28 February in common years.
type YearlyCadence struct{}

func (YearlyCadence) Next(anchor, from time.Time) time.Time {
	if !anchor.Before(from) {
		return anchor
	}
	for year := from.Year(); ; year++ {
		candidate := dayInMonth(year, anchor.Month(), anchor.Day())
		if !candidate.Before(from) {
			return candidate
		}
	}
}

// dayInMonth clamps day to the length of the given month. month may be out
// of range and is normalised the way time.Date does.
func dayInMonth(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(day, last)-1)
}

var cadences = map[core.RecurrenceType]Cadence{
	core.Weekly:  WeeklyCadence{},
	core.Monthly: MonthlyCadence{},
	core.Yearly:  YearlyCadence{},
}

// CadenceFor returns the strategy registered for rt.
func CadenceFor(rt core.RecurrenceType) (Cadence, bool) {
	c, ok := cadences[rt]
	return c, ok
}

// NextOccurrence returns the next due day of a recurring transaction on or
// after from. It reports false for rows that are not recurring, carry an
// unknown cadence or an unparsable date.
func NextOccurrence(t core.Transaction, from time.Time) (time.Time, bool) {
	if !t.Recurring {
		return time.Time{}, false
	}
	cadence, ok := CadenceFor(t.RecurrenceType)
	if !ok {
		return time.Time{}, false
	}
	anchor, err := core.ParseDate(t.Date)
	if err != nil {
		return time.Time{}, false
	}
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	return cadence.Next(anchor, day), true
}

// Upcoming pairs a recurring transaction with its next due day.
type Upcoming struct {
	Transaction core.Transaction `json:"transaction"`
	Due         string           `json:"due"`
}

// UpcomingRecurring lists the recurring rows due within window of from,
// soonest first.
func UpcomingRecurring(txs []core.Transaction, from time.Time, window time.Duration) []Upcoming {
	type dated struct {
		tx  core.Transaction
		due time.Time
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(window)

	rows := make([]dated, 0)
	for _, t := range txs {
		due, ok := NextOccurrence(t, from)
		if !ok || due.After(end) {
			continue
		}
		rows = append(rows, dated{tx: t, due: due})
	}
	slices.SortStableFunc(rows, func(a, b dated) int {
		return cmp.Compare(a.due.Unix(), b.due.Unix())
	})

	out := make([]Upcoming, 0, len(rows))
	for _, r := range rows {
		out = append(out, Upcoming{Transaction: r.tx, Due: core.FormatDate(r.due)})
	}
	return out
}
