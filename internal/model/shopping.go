package model

import "time"

type ListStatus string

const (
	ListDraft     ListStatus = "draft"
	ListShopping  ListStatus = "shopping"
	ListCompleted ListStatus = "completed"
)

// Valid reports whether s is one of the three known states.
func (s ListStatus) Valid() bool {
	switch s {
	case ListDraft, ListShopping, ListCompleted:
		return true
	}
	return false
}

type ShoppingList struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Status       ListStatus         `json:"status"`
	SourceListID *string            `json:"source_list_id"`
	CreatedAt    time.Time          `json:"created_at"`
	StartedAt    *time.Time         `json:"started_at"`
	CompletedAt  *time.Time         `json:"completed_at"`
	Items        []ShoppingListItem `json:"items"`
}

type ShoppingListItem struct {
	ID                string    `json:"id"`
	ListID            string    `json:"list_id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Unit              string    `json:"unit"`
	PlannedQuantity   float64   `json:"planned_quantity"`
	PurchasedQuantity *float64  `json:"purchased_quantity"`
	UnitPrice         *float64  `json:"unit_price"`
	IsPurchased       bool      `json:"is_purchased"`
	IsUrgent          bool      `json:"is_urgent"`
	Position          int       `json:"position"`
	CreatedAt         time.Time `json:"created_at"`
}

// Subtotal is purchased quantity times unit price, zero for pending items.
func (i ShoppingListItem) Subtotal() float64 {
	if !i.IsPurchased || i.PurchasedQuantity == nil || i.UnitPrice == nil {
		return 0
	}
	return *i.PurchasedQuantity * *i.UnitPrice
}

// Total sums the subtotals of every purchased item.
func (l ShoppingList) Total() float64 {
	var total float64
	for _, item := range l.Items {
		total += item.Subtotal()
	}
	return total
}

func (l ShoppingList) PurchasedCount() int {
	n := 0
	for _, item := range l.Items {
		if item.IsPurchased {
			n++
		}
	}
	return n
}
