package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/category"
	"github.com/dukerupert/despensa/internal/model"
	ws "github.com/dukerupert/despensa/internal/websocket"
)

type CategoryHandler struct {
	registry *category.Registry
	hub      *ws.Hub
	logger   *slog.Logger
}

func NewCategoryHandler(registry *category.Registry, hub *ws.Hub, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{registry: registry, hub: hub, logger: logger}
}

// List seeds the defaults on first use, then returns the categories in order.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.registry.EnsureSeeded(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(categories))
}

func (h *CategoryHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var drafts []model.CategoryDraft
	if err := decodeJSON(r, &drafts); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	categories, err := h.registry.ReplaceAll(r.Context(), drafts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.hub.Broadcast(auth.UserID(r.Context()), ws.NewMessage("category", "replaced", ""))
	writeJSON(w, http.StatusOK, orEmpty(categories))
}

func (h *CategoryHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	suggested, err := h.registry.Suggest(r.Context(), name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"category": suggested})
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
