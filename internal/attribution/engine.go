package attribution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/metrics"
	"github.com/wonny/etfscope/internal/returns"
	"github.com/wonny/etfscope/pkg/logger"
)

// DefaultTopN is the number of heaviest holdings that get attributed
const DefaultTopN = 50

// Fetch outcomes reported to metrics
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// Config holds attribution parameters
type Config struct {
	TopN        int // 상위 N개 종목만 계산 (기본 50)
	Concurrency int // 동시 조회 수 (기본 1 = 순차)
}

// Engine computes per-constituent period return and contribution
// ⭐ SSOT: 구성종목 기여도 계산은 여기서만
type Engine struct {
	cfg     Config
	names   contracts.NameFunc
	logger  *logger.Logger
	metrics *metrics.Recorder
}

// NewEngine creates an attribution engine; zero config values fall back to defaults
func NewEngine(cfg Config, log *logger.Logger, rec *metrics.Recorder) *Engine {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{cfg: cfg, logger: log, metrics: rec}
}

// WithNames enables display-name lookup for attributed rows
func (e *Engine) WithNames(fn contracts.NameFunc) *Engine {
	e.names = fn
	return e
}

// Attribute returns a copy of holdings in canonical order (weight desc, stable)
// with Return/Contribution filled for the top-N rows.
// Rows beyond top-N stay in the table with zeros and Attributed=false.
// A constituent that cannot be priced gets zero return and zero contribution;
// it never fails the batch. If ctx is cancelled the partial table is returned with ctx.Err().
func (e *Engine) Attribute(
	ctx context.Context,
	holdings contracts.HoldingsTable,
	fetch contracts.PriceFetchFunc,
	period contracts.DateRange,
) (contracts.HoldingsTable, error) {
	if fetch == nil {
		return nil, fmt.Errorf("attribute: fetch capability is required")
	}

	table := Canonical(holdings)
	n := min(e.cfg.TopN, len(table))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		row := &table[i]
		row.Attributed = true

		// 각 goroutine 은 자기 행만 씀
		g.Go(func() error {
			e.attributeOne(gctx, row, fetch, period)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return table, err
	}

	failed := 0
	for _, h := range table[:n] {
		if !h.Resolved {
			failed++
		}
	}
	e.logger.WithFields(map[string]interface{}{
		"holdings":   len(table),
		"attributed": n,
		"failed":     failed,
		"period":     period.String(),
	}).Info("Attribution completed")

	return table, nil
}

func (e *Engine) attributeOne(ctx context.Context, h *contracts.Holding, fetch contracts.PriceFetchFunc, period contracts.DateRange) {
	if ctx.Err() != nil {
		return
	}
	log := e.logger.WithFields(map[string]interface{}{
		"symbol": h.Symbol,
		"weight": h.WeightPct,
	})
	defer e.resolveName(ctx, h)

	series, err := fetch(ctx, h.Symbol, period.Start, period.End)
	switch {
	case err != nil:
		if ctx.Err() == nil {
			log.WithError(err).Warn("Constituent price fetch failed")
		}
		e.metrics.ConstituentFetch(OutcomeError)
		return
	case series.IsEmpty():
		log.Warn("No price data for constituent")
		e.metrics.ConstituentFetch(OutcomeEmpty)
		return
	}

	ret, err := returns.PeriodReturn(series)
	if err != nil {
		if errors.Is(err, contracts.ErrInvalidPrice) {
			e.metrics.ConstituentFetch(OutcomeInvalid)
		} else {
			e.metrics.ConstituentFetch(OutcomeError)
		}
		log.WithError(err).Warn("Constituent return unavailable")
		return
	}

	h.Return = ret
	h.Contribution = Contribution(ret, h.WeightPct)
	h.Resolved = true
	e.metrics.ConstituentFetch(OutcomeOK)
}

// resolveName: 조회 실패 시 소스 이름 유지, 그것도 없으면 종목코드
func (e *Engine) resolveName(ctx context.Context, h *contracts.Holding) {
	if e.names != nil && ctx.Err() == nil {
		if name, err := e.names(ctx, h.Symbol); err == nil && name != "" {
			h.Name = name
		}
	}
	if h.Name == "" {
		h.Name = h.Symbol
	}
}

// Contribution converts a percent return and a percent weight into %p contribution
func Contribution(returnPct, weightPct float64) float64 {
	return returnPct * weightPct / 100
}

// Canonical returns a deep copy sorted by weight descending; ties keep source order
func Canonical(holdings contracts.HoldingsTable) contracts.HoldingsTable {
	table := holdings.Clone()
	for i := range table {
		table[i].Return = 0
		table[i].Contribution = 0
		table[i].Attributed = false
		table[i].Resolved = false
	}
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].WeightPct > table[j].WeightPct
	})
	return table
}

// Ranked returns the attributed rows only, in canonical order
func Ranked(table contracts.HoldingsTable) contracts.HoldingsTable {
	return table.Attributed()
}

// Summary is the aggregate view shown under the attribution table
type Summary struct {
	Holdings          int     `json:"holdings"`
	Attributed        int     `json:"attributed"`
	Resolved          int     `json:"resolved"`
	AttributedWeight  float64 `json:"attributed_weight"`
	TotalContribution float64 `json:"total_contribution"`
	AsOf              string  `json:"as_of,omitempty"`
}

// Summarize aggregates an attributed table
func Summarize(table contracts.HoldingsTable, asOf time.Time) Summary {
	s := Summary{Holdings: len(table)}
	for _, h := range table {
		if !h.Attributed {
			continue
		}
		s.Attributed++
		s.AttributedWeight += h.WeightPct
		s.TotalContribution += h.Contribution
		if h.Resolved {
			s.Resolved++
		}
	}
	if !asOf.IsZero() {
		s.AsOf = asOf.Format(contracts.DateLayout)
	}
	return s
}
