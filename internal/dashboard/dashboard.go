// Package dashboard assembles the monthly overview from the store and keeps
// a small per-month cache of it.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

const recentLimit = 5

// Source is the slice of the store the dashboard reads and watches. A
// summary is built from a single Snapshot so that every figure in it comes
// from the same revision.
type Source interface {
	Snapshot() core.State
	Subscribe(slice store.Slice, fn store.Listener) (unsubscribe func())
}

// Summary is the monthly overview.
type Summary struct {
	Month           string                     `json:"month"`
	Currency        string                     `json:"currency"`
	Totals          aggregate.Totals           `json:"totals"`
	ByCategory      []aggregate.CategoryAmount `json:"byCategory"`
	TopCategory     *aggregate.CategoryAmount  `json:"topCategory,omitempty"`
	Budgets         []aggregate.BudgetView     `json:"budgets"`
	Budgeted        float64                    `json:"budgeted"`
	BudgetSpent     float64                    `json:"budgetSpent"`
	Alerts          []aggregate.BudgetView     `json:"alerts"`
	RecurringImpact float64                    `json:"recurringImpact"`
	SpendingChange  float64                    `json:"spendingChange"`
	Recent          []core.Transaction         `json:"recent"`
}

type Service struct {
	src            Source
	cache          *cache.LRUCache[Summary]
	group          singleflight.Group
	alertThreshold float64
	logger         *slog.Logger
	unsubscribe    []func()
}

type Option func(*Service)

func WithAlertThreshold(threshold float64) Option {
	return func(s *Service) { s.alertThreshold = threshold }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New builds the service and subscribes to the slices a summary depends on.
// Call Close to drop the subscriptions.
func New(src Source, size int, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		src:            src,
		cache:          cache.NewLRUCache[Summary](size, ttl),
		alertThreshold: aggregate.DefaultAlertThreshold,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, slice := range []store.Slice{store.Transactions, store.Budgets, store.Settings} {
		s.unsubscribe = append(s.unsubscribe, src.Subscribe(slice, s.invalidate))
	}
	return s
}

// Cache exposes the underlying cache so it can be registered for expiry.
func (s *Service) Cache() *cache.LRUCache[Summary] {
	return s.cache
}

func (s *Service) Close() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.unsubscribe = nil
}

func (s *Service) invalidate(c store.Change) {
	s.cache.Purge()
	s.logger.Debug("Dashboard cache purged", log.FieldComponent, log.ComponentDashboard, log.FieldSlice, string(c.Slice), log.FieldOperation, c.Op)
}

// Summary returns the overview of month, from cache when possible.
func (s *Service) Summary(ctx context.Context, month string) (Summary, error) {
	if _, err := core.ParseMonth(month); err != nil {
		return Summary{}, err
	}
	if sum, ok := s.cache.Get(month); ok {
		return sum, nil
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	v, err, _ := s.group.Do(month, func() (any, error) {
		gen := s.cache.Generation()
		sum, err := s.build(month)
		if err != nil {
			return Summary{}, err
		}
		s.cache.SetIfGeneration(month, sum, gen)
		return sum, nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("build summary %s: %w", month, err)
	}
	return v.(Summary), nil
}

func (s *Service) build(month string) (Summary, error) {
	state := s.src.Snapshot()
	txs := state.Transactions
	budgets := aggregate.BudgetsForMonth(state.Budgets, txs, month)

	change, err := aggregate.SpendingChange(txs, month)
	if err != nil {
		return Summary{}, err
	}
	budgeted, spent := aggregate.BudgetTotals(budgets)

	sum := Summary{
		Month:           month,
		Currency:        state.Settings.Currency,
		Totals:          aggregate.MonthTotals(txs, month),
		ByCategory:      aggregate.ExpensesByCategory(txs, month),
		Budgets:         budgets,
		Budgeted:        budgeted,
		BudgetSpent:     spent,
		Alerts:          aggregate.BudgetAlerts(budgets, s.alertThreshold),
		RecurringImpact: aggregate.RecurringMonthlyImpact(txs),
		SpendingChange:  change,
		Recent:          aggregate.RecentTransactions(txs, recentLimit),
	}
	if top, ok := aggregate.TopCategory(txs, month); ok {
		sum.TopCategory = &top
	}
	return sum, nil
}
