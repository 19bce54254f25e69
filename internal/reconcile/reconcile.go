// Package reconcile turns the purchased items of a finalized shopping list
// into inventory quantity deltas.
package reconcile

import (
	"time"

	"github.com/dukerupert/despensa/internal/model"
)

// Delta is the quantity to add to the inventory item with exactly Name.
// Category and Unit are only used when the inventory item has to be created.
type Delta struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

// Summary describes one completed reconciliation.
type Summary struct {
	ListID         string    `json:"list_id"`
	CompletedAt    time.Time `json:"completed_at"`
	PurchasedItems int       `json:"purchased_items"`
	Total          float64   `json:"total"`
	Deltas         []Delta   `json:"deltas"`
}

// Aggregate groups purchased items by exact name in first-seen order and sums
// their purchased quantities. Pending items contribute nothing.
func Aggregate(items []model.ShoppingListItem) []Delta {
	var deltas []Delta
	index := make(map[string]int)
	for _, item := range items {
		if !item.IsPurchased || item.PurchasedQuantity == nil {
			continue
		}
		if i, ok := index[item.Name]; ok {
			deltas[i].Quantity += *item.PurchasedQuantity
			continue
		}
		index[item.Name] = len(deltas)
		deltas = append(deltas, Delta{
			Name:     item.Name,
			Category: orDefault(item.Category, model.FallbackCategory),
			Unit:     orDefault(item.Unit, model.DefaultUnit),
			Quantity: *item.PurchasedQuantity,
		})
	}
	return deltas
}

// Summarize builds the Summary for a list about to be completed at completedAt.
func Summarize(list model.ShoppingList, completedAt time.Time) Summary {
	return Summary{
		ListID:         list.ID,
		CompletedAt:    completedAt,
		PurchasedItems: list.PurchasedCount(),
		Total:          list.Total(),
		Deltas:         Aggregate(list.Items),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
