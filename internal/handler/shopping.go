package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/events"
	"github.com/dukerupert/despensa/internal/metrics"
	"github.com/dukerupert/despensa/internal/model"
	"github.com/dukerupert/despensa/internal/shopping"
	ws "github.com/dukerupert/despensa/internal/websocket"
)

// ShoppingHandler serves lists and their items.
type ShoppingHandler struct {
	engine    *shopping.Engine
	hub       *ws.Hub
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewShoppingHandler(engine *shopping.Engine, hub *ws.Hub, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *ShoppingHandler {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &ShoppingHandler{engine: engine, hub: hub, publisher: publisher, metrics: m, logger: logger}
}

type listRequest struct {
	Name string `json:"name"`
}

type urgentRequest struct {
	IsUrgent bool `json:"is_urgent"`
}

type purchaseRequest struct {
	PurchasedQuantity shopping.Numeric `json:"purchased_quantity"`
	UnitPrice         shopping.Numeric `json:"unit_price"`
}

func (h *ShoppingHandler) broadcast(r *http.Request, entity, action, id string) {
	h.hub.Broadcast(auth.UserID(r.Context()), ws.NewMessage(entity, action, id))
}

func (h *ShoppingHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	cards, err := h.engine.Lists(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(cards))
}

func (h *ShoppingHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.engine.CreateList(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.metrics.Transition(string(model.ListDraft))
	h.broadcast(r, "shopping_list", "created", list.ID)
	writeJSON(w, http.StatusCreated, list)
}

func (h *ShoppingHandler) GetList(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ViewList returns the list split into pending and purchased items, filtered
// by ?q= and ?category=.
func (h *ShoppingHandler) ViewList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.engine.View(r.Context(), r.PathValue("id"), shopping.Filter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ShoppingHandler) CopyList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.engine.Copy(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.metrics.Transition(string(model.ListDraft))
	h.broadcast(r, "shopping_list", "created", list.ID)
	writeJSON(w, http.StatusCreated, list)
}

func (h *ShoppingHandler) StartList(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.metrics.Transition(string(list.Status))
	h.broadcast(r, "shopping_list", "started", list.ID)
	writeJSON(w, http.StatusOK, list)
}

// FinalizeList completes the list and publishes the completion. A failed
// publish is logged; the list is already completed.
func (h *ShoppingHandler) FinalizeList(w http.ResponseWriter, r *http.Request) {
	done, err := h.engine.Finalize(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	userID := auth.UserID(r.Context())
	h.metrics.Transition(string(done.List.Status))
	h.metrics.Reconciled(len(done.Summary.Deltas))
	if err := h.publisher.ListCompleted(r.Context(), userID, done.Summary); err != nil {
		h.logger.Warn("publish list completed", "list_id", done.List.ID, "error", err)
	}

	h.logger.Info("list finalized",
		"list_id", done.List.ID,
		"purchased_items", done.Summary.PurchasedItems,
		"total", done.Summary.Total,
	)
	h.broadcast(r, "shopping_list", "finalized", done.List.ID)
	h.broadcast(r, "inventory", "reconciled", done.List.ID)
	writeJSON(w, http.StatusOK, done)
}

func (h *ShoppingHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in shopping.NewItemInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.engine.AddItem(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(r, "shopping_item", "created", list.ID)
	writeJSON(w, http.StatusCreated, list)
}

func (h *ShoppingHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.RemoveItem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(r, "shopping_item", "deleted", list.ID)
	writeJSON(w, http.StatusOK, list)
}

func (h *ShoppingHandler) ToggleUrgent(w http.ResponseWriter, r *http.Request) {
	var req urgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.engine.ToggleUrgent(r.Context(), r.PathValue("id"), req.IsUrgent)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(r, "shopping_item", "updated", list.ID)
	writeJSON(w, http.StatusOK, list)
}

func (h *ShoppingHandler) MarkPurchased(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.engine.MarkPurchased(r.Context(), r.PathValue("id"), req.PurchasedQuantity, req.UnitPrice)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(r, "shopping_item", "purchased", list.ID)
	writeJSON(w, http.StatusOK, list)
}

func (h *ShoppingHandler) ReturnToPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ReturnToPending(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(r, "shopping_item", "returned", list.ID)
	writeJSON(w, http.StatusOK, list)
}
