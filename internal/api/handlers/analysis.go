package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/etfscope/internal/analysis"
	"github.com/wonny/etfscope/internal/attribution"
	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/ranking"
	"github.com/wonny/etfscope/pkg/logger"
)

// Analyzer runs one ETF analysis
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.Report, error)
}

// AnalysisHandler handles ETF analysis endpoints
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	analyzer Analyzer
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer Analyzer, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, logger: log}
}

// Row is one display row of the attribution table
type Row struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Weight       string `json:"weight"`
	Amount       string `json:"amount"`
	Return       string `json:"return"`
	Contribution string `json:"contribution"`
	Tone         string `json:"tone"`
}

// AnalysisResponse is the report plus the ranked display rows
type AnalysisResponse struct {
	*analysis.Report
	Sort ranking.State `json:"sort"`
	Rows []Row         `json:"rows"`
}

// Analyze runs an analysis
// GET /api/analysis?etf=069500&start=2024-01-02&end=2024-03-29[&benchmark=1001][&sort=contribution&dir=desc]
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	etf := q.Get("etf")
	if etf == "" {
		respondError(w, http.StatusBadRequest, "etf is required")
		return
	}
	period, err := contracts.NewDateRange(q.Get("start"), q.Get("end"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := ranking.State{Column: ranking.ColumnWeight, Direction: ranking.Default}
	if s := q.Get("sort"); s != "" {
		if state.Column, err = ranking.ParseColumn(s); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if state.Direction, err = ranking.ParseDirection(q.Get("dir")); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	report, err := h.analyzer.Run(r.Context(), analysis.Request{
		ETF:       etf,
		Benchmark: q.Get("benchmark"),
		Period:    period,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("etf", etf).Error("Analysis failed")
		}
		respondError(w, status, err.Error())
		return
	}

	ranked := ranking.Sort(attribution.Ranked(report.Holdings), state.Column, state.Direction)
	respondJSON(w, http.StatusOK, AnalysisResponse{Report: report, Sort: state, Rows: toRows(ranked)})
}

// SelectionSumRequest carries the texts of the selected cells
type SelectionSumRequest struct {
	Cells []string `json:"cells"`
}

// SelectionSum sums numeric cells of a table selection
// POST /api/analysis/selection-sum
func (h *AnalysisHandler) SelectionSum(w http.ResponseWriter, r *http.Request) {
	var req SelectionSumRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sum := ranking.SumSelected(req.Cells)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    sum.Count,
		"total":    sum.Total,
		"selected": sum.Selected,
		"text":     sum.String(),
	})
}

func toRows(table contracts.HoldingsTable) []Row {
	rows := make([]Row, 0, len(table))
	for _, h := range table {
		rows = append(rows, Row{
			Symbol:       ranking.Cell(h, ranking.ColumnSymbol),
			Name:         ranking.Cell(h, ranking.ColumnName),
			Weight:       ranking.Cell(h, ranking.ColumnWeight),
			Amount:       ranking.Cell(h, ranking.ColumnAmount),
			Return:       ranking.Cell(h, ranking.ColumnReturn),
			Contribution: ranking.Cell(h, ranking.ColumnContribution),
			Tone:         ranking.ContributionTone(h.Contribution).String(),
		})
	}
	return rows
}
