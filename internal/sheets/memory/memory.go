// Package memory is an in-process MonthExporter for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	exports map[string][][]any
	count   int
}

var _ ports.MonthExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{exports: make(map[string][][]any)}
}

// ExportMonth keeps the rendered rows under month, replacing earlier ones.
func (e *Exporter) ExportMonth(_ context.Context, month string, txs []core.Transaction, currency string) (string, error) {
	if _, err := core.ParseMonth(month); err != nil {
		return "", err
	}
	rows := ports.Rows(month, txs, currency)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.exports[month] = rows
	e.count++
	return fmt.Sprintf("mem:%s:%d", month, len(rows)), nil
}

// Rows returns the last export of month.
func (e *Exporter) Rows(month string) ([][]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, ok := e.exports[month]
	return rows, ok
}

// Count is the number of exports performed.
func (e *Exporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}
