// Package sheets exports month ledgers to spreadsheets.
package sheets

import (
	"context"
	"errors"
	"strings"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

var ErrNotConfigured = errors.New("sheets exporter not configured")

// MonthExporter writes the transactions of one month to a sheet, replacing
// whatever an earlier export of that sheet left behind.
type MonthExporter interface {
	// ExportMonth returns a reference to the written range.
	ExportMonth(ctx context.Context, month string, txs []core.Transaction, currency string) (ref string, err error)
}

var Header = []any{"Date", "Type", "Category", "Description", "Amount", "Formatted", "Tags", "Recurring", "Completed"}

// Rows renders the header and one row per transaction dated in month,
// oldest first.
func Rows(month string, txs []core.Transaction, currency string) [][]any {
	inMonth := aggregate.FilterMonth(txs, month)
	ordered := aggregate.RecentTransactions(inMonth, len(inMonth))

	rows := make([][]any, 0, len(ordered)+1)
	rows = append(rows, Header)
	for i := len(ordered) - 1; i >= 0; i-- {
		t := ordered[i]
		rows = append(rows, []any{
			t.Date,
			string(t.Type),
			t.Category,
			t.Description,
			t.Amount,
			core.FormatAmount(currency, t.Amount),
			strings.Join(t.Tags, ", "),
			t.Recurring,
			t.Completed,
		})
	}
	return rows
}
