package handlers

import (
	"net/http"
	"strconv"

	"github.com/wonny/etfscope/internal/classifier"
	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/pkg/logger"
)

// UniverseHandler lists the selectable ETFs
type UniverseHandler struct {
	source     contracts.UniverseSource
	classifier *classifier.Classifier
	logger     *logger.Logger
}

// NewUniverseHandler creates a new universe handler
func NewUniverseHandler(source contracts.UniverseSource, c *classifier.Classifier, log *logger.Logger) *UniverseHandler {
	return &UniverseHandler{source: source, classifier: c, logger: log}
}

// UniverseItem is one instrument with its classification
type UniverseItem struct {
	contracts.Instrument
	Label   string             `json:"label"`
	Verdict classifier.Verdict `json:"verdict"`
}

// GetUniverse returns in-scope ETFs, or every ETF with ?all=true
// GET /api/universe
func (h *UniverseHandler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	universe, err := h.source.ListUniverse(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list universe")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve universe")
		return
	}

	items := make([]UniverseItem, 0, len(universe))
	excluded := make(map[classifier.Category]int)
	for _, inst := range universe {
		v := h.classifier.Classify(inst.Name)
		if !v.InScope {
			excluded[v.Category]++
			if !all {
				continue
			}
		}
		items = append(items, UniverseItem{Instrument: inst, Label: inst.Label(), Verdict: v})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(items),
		"excluded": excluded,
		"items":    items,
	})
}
