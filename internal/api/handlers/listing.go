package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/resolver"
	"github.com/wonny/etfscope/pkg/logger"
)

// DateResolver resolves a date-valued attribute along a plan
type DateResolver interface {
	Resolve(ctx context.Context, base, key string, plan resolver.Plan) (time.Time, resolver.Attempt, error)
}

// ListingHandler handles listing-date lookups
type ListingHandler struct {
	resolver DateResolver
	plan     resolver.Plan
	logger   *logger.Logger
}

// NewListingHandler creates a new listing-date handler
func NewListingHandler(r DateResolver, plan resolver.Plan, log *logger.Logger) *ListingHandler {
	return &ListingHandler{resolver: r, plan: plan, logger: log}
}

// ListingDateResponse is the resolved first trading date
type ListingDateResponse struct {
	Code        string `json:"code"`
	ListingDate string `json:"listing_date"`
	Provider    string `json:"provider"`
	Variant     string `json:"variant"`
}

// GetListingDate resolves the first trading date of an instrument
// GET /api/listing-date/{code}
func (h *ListingHandler) GetListingDate(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(mux.Vars(r)["code"])
	if code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	date, attempt, err := h.resolver.Resolve(r.Context(), code, resolver.KeyListingDate, h.plan)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("code", code).Error("Listing date resolution failed")
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, ListingDateResponse{
		Code:        code,
		ListingDate: date.Format(contracts.DateLayout),
		Provider:    attempt.Provider,
		Variant:     attempt.Variant.String(),
	})
}
