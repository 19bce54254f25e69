// Package dashboard derives the home screen rollups. It never writes.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/despensa/internal/apperr"
	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/model"
)

const (
	lowStockLimit   = 5
	nextListPending = 4
)

type ListReader interface {
	CompletedTotals(ctx context.Context, userID string, from, to time.Time) ([]model.CompletedListTotal, error)
	NextOpenList(ctx context.Context, userID string) (*model.ShoppingList, error)
}

type InventoryReader interface {
	ListLowStock(ctx context.Context, userID string, limit int) ([]model.InventoryItem, error)
}

type Aggregator struct {
	lists     ListReader
	inventory InventoryReader
	user      auth.UserFunc
	now       func() time.Time
	loc       *time.Location
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator computes month windows in loc; nil means time.Local.
func NewAggregator(lists ListReader, inventory InventoryReader, user auth.UserFunc, loc *time.Location, opts ...Option) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	a := &Aggregator{lists: lists, inventory: inventory, user: user, now: time.Now, loc: loc}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Window is a half-open [From, To) range.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// MonthWindows returns the calendar month containing now and the one before
// it, both computed in loc.
func MonthWindows(now time.Time, loc *time.Location) (current, previous Window) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	current = Window{From: start, To: start.AddDate(0, 1, 0)}
	previous = Window{From: start.AddDate(0, -1, 0), To: start}
	return current, previous
}

// Stats reads the three sources in parallel and derives the rollup.
func (a *Aggregator) Stats(ctx context.Context) (*model.DashboardStats, error) {
	userID, err := a.user(ctx)
	if err != nil {
		return nil, err
	}
	now := a.now()
	current, previous := MonthWindows(now, a.loc)

	var (
		totals   []model.CompletedListTotal
		lowStock []model.InventoryItem
		next     *model.ShoppingList
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = a.lists.CompletedTotals(gctx, userID, previous.From, current.To)
		return err
	})
	g.Go(func() error {
		var err error
		lowStock, err = a.inventory.ListLowStock(gctx, userID, lowStockLimit)
		return err
	})
	g.Go(func() error {
		var err error
		next, err = a.lists.NextOpenList(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Remote(err)
	}

	stats := Build(now, a.loc, totals, lowStock, next)
	return &stats, nil
}

// Build derives the rollup from already loaded data.
func Build(now time.Time, loc *time.Location, totals []model.CompletedListTotal, lowStock []model.InventoryItem, next *model.ShoppingList) model.DashboardStats {
	current, previous := MonthWindows(now, loc)

	var stats model.DashboardStats
	var prevTotal float64
	prevCount := 0
	for _, t := range totals {
		switch {
		case current.Contains(t.CompletedAt):
			stats.CurrentMonthTotal += t.Total
			stats.CurrentMonthCompletedLists++
		case previous.Contains(t.CompletedAt):
			prevTotal += t.Total
			prevCount++
		}
	}
	if prevCount > 0 {
		stats.PreviousMonthTotal = &prevTotal
		delta := prevTotal - stats.CurrentMonthTotal
		stats.MonthOverMonthDelta = &delta
	}

	stats.LowStockItems = make([]model.InventoryItem, 0, lowStockLimit)
	for _, item := range lowStock {
		if len(stats.LowStockItems) == lowStockLimit {
			break
		}
		if item.IsLow() {
			stats.LowStockItems = append(stats.LowStockItems, item)
		}
	}

	if next != nil {
		stats.NextList = withPendingPreview(*next)
	}
	return stats
}

// withPendingPreview keeps only the first pending items of l in stored order.
func withPendingPreview(l model.ShoppingList) *model.ShoppingList {
	pending := make([]model.ShoppingListItem, 0, nextListPending)
	for _, item := range l.Items {
		if len(pending) == nextListPending {
			break
		}
		if !item.IsPurchased {
			pending = append(pending, item)
		}
	}
	l.Items = pending
	return &l
}
