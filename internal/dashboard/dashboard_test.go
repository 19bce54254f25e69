package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/despensa/internal/apperr"
	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/model"
)

var saoPaulo = time.FixedZone("BRT", -3*3600)

func fp(v float64) *float64 { return &v }

func TestMonthWindows(t *testing.T) {
	now := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC) // still February in BRT
	current, previous := MonthWindows(now, saoPaulo)

	assert.True(t, current.From.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, saoPaulo)))
	assert.True(t, current.To.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, saoPaulo)))
	assert.True(t, previous.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, saoPaulo)))
	assert.True(t, previous.To.Equal(current.From))
	assert.True(t, current.Contains(now))
}

func TestBuildTotals(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	totals := []model.CompletedListTotal{
		{ListID: "a", CompletedAt: time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC), Total: 100},
		{ListID: "b", CompletedAt: time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC), Total: 50},
		{ListID: "c", CompletedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), Total: 80},
		{ListID: "d", CompletedAt: time.Date(2024, 5, 19, 12, 0, 0, 0, time.UTC), Total: 40},
		{ListID: "e", CompletedAt: time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC), Total: 999},
	}

	stats := Build(now, time.UTC, totals, nil, nil)
	assert.Equal(t, 120.0, stats.CurrentMonthTotal)
	assert.Equal(t, 2, stats.CurrentMonthCompletedLists)
	require.NotNil(t, stats.PreviousMonthTotal)
	assert.Equal(t, 150.0, *stats.PreviousMonthTotal)
	require.NotNil(t, stats.MonthOverMonthDelta)
	assert.Equal(t, 30.0, *stats.MonthOverMonthDelta)
	assert.Nil(t, stats.NextList)
	assert.Empty(t, stats.LowStockItems)
}

func TestBuildPreviousMonthNull(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	stats := Build(now, time.UTC, []model.CompletedListTotal{
		{CompletedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Total: 10},
	}, nil, nil)
	assert.Nil(t, stats.PreviousMonthTotal)
	assert.Nil(t, stats.MonthOverMonthDelta)

	stats = Build(now, time.UTC, []model.CompletedListTotal{
		{CompletedAt: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), Total: 0},
	}, nil, nil)
	require.NotNil(t, stats.PreviousMonthTotal, "a completed list with zero spend still counts")
	assert.Equal(t, 0.0, *stats.PreviousMonthTotal)
}

func TestBuildLowStockAndNextList(t *testing.T) {
	var low []model.InventoryItem
	for i := 0; i < 7; i++ {
		low = append(low, model.InventoryItem{Name: string(rune('A' + i)), Quantity: float64(i) / 10, LowThreshold: 1})
	}
	low[1].Quantity = 5

	next := &model.ShoppingList{ID: "n", Status: model.ListShopping}
	for i := 0; i < 6; i++ {
		it := model.ShoppingListItem{Name: string(rune('a' + i))}
		if i == 1 {
			it.IsPurchased, it.PurchasedQuantity, it.UnitPrice = true, fp(1), fp(1)
		}
		next.Items = append(next.Items, it)
	}

	stats := Build(time.Now(), time.UTC, nil, low, next)
	require.Len(t, stats.LowStockItems, 5)
	assert.Equal(t, "A", stats.LowStockItems[0].Name)
	assert.Equal(t, "C", stats.LowStockItems[1].Name, "items above threshold are skipped")

	require.NotNil(t, stats.NextList)
	assert.Equal(t, "n", stats.NextList.ID)
	var pending []string
	for _, it := range stats.NextList.Items {
		pending = append(pending, it.Name)
	}
	assert.Equal(t, []string{"a", "c", "d", "e"}, pending)
	assert.Len(t, next.Items, 6, "source list must not be modified")
}

type stubLists struct {
	totals []model.CompletedListTotal
	next   *model.ShoppingList
	err    error
	from   time.Time
	to     time.Time
}

func (s *stubLists) CompletedTotals(_ context.Context, _ string, from, to time.Time) ([]model.CompletedListTotal, error) {
	s.from, s.to = from, to
	return s.totals, s.err
}

func (s *stubLists) NextOpenList(context.Context, string) (*model.ShoppingList, error) {
	return s.next, nil
}

type stubInventory struct {
	items []model.InventoryItem
	limit int
}

func (s *stubInventory) ListLowStock(_ context.Context, _ string, limit int) ([]model.InventoryItem, error) {
	s.limit = limit
	return s.items, nil
}

func TestAggregatorStats(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	lists := &stubLists{
		totals: []model.CompletedListTotal{{CompletedAt: now.Add(-time.Hour), Total: 42}},
		next:   &model.ShoppingList{ID: "n"},
	}
	inv := &stubInventory{items: []model.InventoryItem{{Name: "Sal", Quantity: 0, LowThreshold: 1}}}
	a := NewAggregator(lists, inv, auth.Fixed("u1"), time.UTC, WithClock(func() time.Time { return now }))

	stats, err := a.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42.0, stats.CurrentMonthTotal)
	assert.Nil(t, stats.PreviousMonthTotal)
	assert.Len(t, stats.LowStockItems, 1)
	assert.Equal(t, "n", stats.NextList.ID)

	assert.Equal(t, 5, inv.limit)
	assert.True(t, lists.from.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, lists.to.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAggregatorRemoteFailure(t *testing.T) {
	lists := &stubLists{err: errors.New("database is locked")}
	a := NewAggregator(lists, &stubInventory{}, auth.Fixed("u1"), nil)

	_, err := a.Stats(context.Background())
	assert.Equal(t, apperr.KindRemoteFailure, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "database is locked")
}

func TestAggregatorUnauthenticated(t *testing.T) {
	a := NewAggregator(&stubLists{}, &stubInventory{}, auth.CurrentUser, time.UTC)
	_, err := a.Stats(context.Background())
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}
