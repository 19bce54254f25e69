package model

import "time"

// DashboardStats is the read-only rollup shown on the home screen.
type DashboardStats struct {
	CurrentMonthTotal          float64         `json:"current_month_total"`
	PreviousMonthTotal         *float64        `json:"previous_month_total"`
	MonthOverMonthDelta        *float64        `json:"month_over_month_delta"`
	CurrentMonthCompletedLists int             `json:"current_month_completed_lists"`
	LowStockItems              []InventoryItem `json:"low_stock_items"`
	NextList                   *ShoppingList   `json:"next_list"`
}

// CompletedListTotal is one finalized list reduced to its spend.
type CompletedListTotal struct {
	ListID      string
	CompletedAt time.Time
	Total       float64
}
