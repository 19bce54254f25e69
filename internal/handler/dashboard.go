package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/despensa/internal/dashboard"
)

type DashboardHandler struct {
	aggregator *dashboard.Aggregator
	logger     *slog.Logger
}

func NewDashboardHandler(aggregator *dashboard.Aggregator, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{aggregator: aggregator, logger: logger}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.aggregator.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
