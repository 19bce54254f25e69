package model

import "time"

// DefaultUnit applies to items saved without a unit.
const DefaultUnit = "un"

type InventoryItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Unit         string    `json:"unit"`
	Quantity     float64   `json:"quantity"`
	LowThreshold float64   `json:"low_threshold"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type StockLevel string

const (
	StockEmpty StockLevel = "empty"
	StockLow   StockLevel = "low"
	StockOK    StockLevel = "ok"
)

// Level derives the stock level of the item.
func (i InventoryItem) Level() StockLevel {
	switch {
	case i.Quantity <= 0:
		return StockEmpty
	case i.Quantity <= i.LowThreshold:
		return StockLow
	default:
		return StockOK
	}
}

// IsLow reports whether the item is at or below its threshold, empty included.
func (i InventoryItem) IsLow() bool {
	return i.Quantity <= i.LowThreshold
}
