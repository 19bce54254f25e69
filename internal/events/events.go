// Package events publishes domain events for other services, such as an
// expense tracker consuming completed shopping lists.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dukerupert/despensa/internal/reconcile"
)

const RoutingListCompleted = "shopping_list.completed"

type Publisher interface {
	ListCompleted(ctx context.Context, userID string, summary reconcile.Summary) error
	Close() error
}

// ListCompletedMessage is the JSON body published when a list is finalized.
type ListCompletedMessage struct {
	ListID         string    `json:"list_id"`
	UserID         string    `json:"user_id"`
	Total          float64   `json:"total"`
	PurchasedItems int       `json:"purchased_items"`
	CompletedAt    time.Time `json:"completed_at"`
}

func NewListCompletedMessage(userID string, s reconcile.Summary) ListCompletedMessage {
	return ListCompletedMessage{
		ListID:         s.ListID,
		UserID:         userID,
		Total:          s.Total,
		PurchasedItems: s.PurchasedItems,
		CompletedAt:    s.CompletedAt.UTC(),
	}
}

func (m ListCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) ListCompleted(context.Context, string, reconcile.Summary) error { return nil }
func (Noop) Close() error { return nil }
