package handlers

import (
	"net/http"

	"github.com/wonny/momentum/internal/external/yahoo"
	"github.com/wonny/momentum/pkg/logger"
)

// MarketHandler serves the market overview snapshot
type MarketHandler struct {
	store  *yahoo.OverviewStore // nil이면 비활성
	logger *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(store *yahoo.OverviewStore, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		store:  store,
		logger: log,
	}
}

// GetOverview returns the latest market overview
// GET /api/market
func (h *MarketHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusNotFound, "Market overview is disabled")
		return
	}

	overview, ok := h.store.Get(r.Context())
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "Market overview not available yet")
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

// Refresh fetches a new snapshot immediately
// POST /api/market/refresh
func (h *MarketHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusNotFound, "Market overview is disabled")
		return
	}

	overview, err := h.store.Refresh(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Market overview refresh failed")
		respondError(w, http.StatusBadGateway, "Failed to refresh market overview")
		return
	}

	respondJSON(w, http.StatusOK, overview)
}
