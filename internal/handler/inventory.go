package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/inventory"
	"github.com/dukerupert/despensa/internal/shopping"
	ws "github.com/dukerupert/despensa/internal/websocket"
)

type InventoryHandler struct {
	ledger *inventory.Ledger
	hub    *ws.Hub
	logger *slog.Logger
}

func NewInventoryHandler(ledger *inventory.Ledger, hub *ws.Hub, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, hub: hub, logger: logger}
}

type decrementRequest struct {
	Amount shopping.Numeric `json:"amount"`
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listing, err := h.ledger.List(r.Context(), inventory.Filter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	listing.Items = orEmpty(listing.Items)
	writeJSON(w, http.StatusOK, listing)
}

// Decrement records consumption. A missing amount means one unit.
func (h *InventoryHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	var req decrementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	amount := 1.0
	if req.Amount != "" {
		v, ok := req.Amount.Parse()
		if !ok {
			writeMessage(w, http.StatusBadRequest, "amount must be a number")
			return
		}
		amount = v
	}

	item, err := h.ledger.Decrement(r.Context(), r.PathValue("id"), amount)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.hub.Broadcast(auth.UserID(r.Context()), ws.NewMessage("inventory_item", "decremented", item.ID))
	writeJSON(w, http.StatusOK, item)
}
