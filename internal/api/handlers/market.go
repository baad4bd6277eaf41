package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/etfscope/internal/market"
)

// Snapshotter builds a market dashboard snapshot
type Snapshotter interface {
	Snapshot(ctx context.Context) market.Snapshot
}

// MarketHandler serves the market dashboard
type MarketHandler struct {
	dashboard Snapshotter
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(d Snapshotter) *MarketHandler {
	return &MarketHandler{dashboard: d}
}

// GetSnapshot returns KOSPI/KOSDAQ/USD-KRW and bond yields
// GET /api/market
func (h *MarketHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.dashboard.Snapshot(r.Context()))
}
