// Package inventory exposes the stock ledger: listing with filters, the
// "mark consumed" decrement and low-stock counts.
package inventory

import (
	"context"

	"github.com/dukerupert/despensa/internal/apperr"
	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/category"
	"github.com/dukerupert/despensa/internal/model"
)

type Store interface {
	List(ctx context.Context, userID string) ([]model.InventoryItem, error)
	Decrement(ctx context.Context, userID, id string, amount float64) (*model.InventoryItem, error)
}

type CategoryLister interface {
	List(ctx context.Context) ([]model.Category, error)
}

type Ledger struct {
	store      Store
	categories CategoryLister
	user       auth.UserFunc
}

func NewLedger(s Store, categories CategoryLister, user auth.UserFunc) *Ledger {
	return &Ledger{store: s, categories: categories, user: user}
}

// Filter narrows a listing. Empty Category or "all" passes every category.
type Filter struct {
	Query    string
	Category string
}

// Entry is an inventory item with its derived display fields.
type Entry struct {
	model.InventoryItem
	Level           model.StockLevel `json:"level"`
	DisplayCategory string           `json:"display_category"`
}

type Listing struct {
	Items         []Entry `json:"items"`
	LowStockCount int     `json:"low_stock_count"`
}

// List returns the account's inventory, most recently updated first.
// LowStockCount covers the whole inventory, not only the filtered items.
func (l *Ledger) List(ctx context.Context, f Filter) (*Listing, error) {
	userID, err := l.user(ctx)
	if err != nil {
		return nil, err
	}
	items, err := l.store.List(ctx, userID)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	categories, err := l.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	order := category.NewOrder(categories)

	listing := &Listing{Items: []Entry{}, LowStockCount: LowStockCount(items)}
	for _, item := range FilterItems(items, f) {
		listing.Items = append(listing.Items, Entry{
			InventoryItem:   item,
			Level:           item.Level(),
			DisplayCategory: category.DisplayName(order, item.Category),
		})
	}
	return listing, nil
}

// Decrement lowers the item's quantity by amount, clamped at zero.
func (l *Ledger) Decrement(ctx context.Context, itemID string, amount float64) (*model.InventoryItem, error) {
	userID, err := l.user(ctx)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	item, err := l.store.Decrement(ctx, userID, itemID, amount)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	if item == nil {
		return nil, apperr.NotFound("inventory item")
	}
	return item, nil
}

// LowStockCount counts items at or below their threshold.
func LowStockCount(items []model.InventoryItem) int {
	n := 0
	for _, item := range items {
		if item.IsLow() {
			n++
		}
	}
	return n
}

// FilterItems keeps items whose name contains f.Query, ignoring case, and
// whose category passes f.Category.
func FilterItems(items []model.InventoryItem, f Filter) []model.InventoryItem {
	out := make([]model.InventoryItem, 0, len(items))
	for _, item := range items {
		if category.MatchesFilter(item.Category, f.Category) && category.MatchesText(item.Name, f.Query) {
			out = append(out, item)
		}
	}
	return out
}
