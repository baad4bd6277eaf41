// Package analysis assembles one ETF performance report: total return, risk
// metrics against a benchmark and the per-constituent attribution table.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/etfscope/internal/attribution"
	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/metrics"
	"github.com/wonny/etfscope/internal/returns"
	"github.com/wonny/etfscope/internal/risk"
	"github.com/wonny/etfscope/pkg/logger"
)

// Return bases reported with the total return
const (
	BasisNAV   = "nav"
	BasisClose = "close"
)

// Sources are the capabilities a run reads from
type Sources struct {
	ETFPrices    contracts.PriceSource    // 필수: ETF 가격 (NAV 포함 가능)
	Benchmark    contracts.PriceSource    // 필수: 벤치마크 지수
	Holdings     contracts.HoldingsSource // 필수: 구성종목(PDF)
	Constituents contracts.PriceSource    // 필수: 구성종목 가격
	Names        contracts.NameSource     // 선택: 표시 이름
}

func (s Sources) validate() error {
	switch {
	case s.ETFPrices == nil:
		return errors.New("analysis: ETF price source is required")
	case s.Benchmark == nil:
		return errors.New("analysis: benchmark source is required")
	case s.Holdings == nil:
		return errors.New("analysis: holdings source is required")
	case s.Constituents == nil:
		return errors.New("analysis: constituent price source is required")
	}
	return nil
}

// Config holds run parameters
type Config struct {
	Attribution  attribution.Config
	FetchSpacing time.Duration // 구성종목 조회 최소 간격
	Benchmark    string        // 기본 벤치마크 식별자 (KOSPI = "1001")
}

// Request is one analysis request
type Request struct {
	ETF       string // "069500" or "069500 | KODEX 200"
	Benchmark string // empty = Config.Benchmark
	Period    contracts.DateRange
}

// Report is the result of one run
type Report struct {
	ETF             contracts.Instrument    `json:"etf"`
	Benchmark       string                  `json:"benchmark"`
	Period          contracts.DateRange     `json:"period"`
	StartPrice      float64                 `json:"start_price"`
	EndPrice        float64                 `json:"end_price"`
	TotalReturn     float64                 `json:"total_return"` // %
	ReturnBasis     string                  `json:"return_basis"`
	BenchmarkReturn contracts.Ratio         `json:"benchmark_return"` // %
	Metrics         contracts.Metrics       `json:"metrics"`
	HoldingsAsOf    string                  `json:"holdings_as_of,omitempty"`
	Holdings        contracts.HoldingsTable `json:"holdings"`
	Summary         attribution.Summary     `json:"summary"`
	Warnings        []string                `json:"warnings,omitempty"`
}

// Service runs ETF analyses
// ⭐ SSOT: 분석 파이프라인 조립은 여기서만
type Service struct {
	cfg         Config
	src         Sources
	attribution *attribution.Engine
	risk        *risk.Engine
	limiter     *rate.Limiter
	logger      *logger.Logger
	metrics     *metrics.Recorder
}

// NewService creates an analysis service
func NewService(cfg Config, src Sources, log *logger.Logger, rec *metrics.Recorder) (*Service, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	limit := rate.Inf
	if cfg.FetchSpacing > 0 {
		limit = rate.Every(cfg.FetchSpacing)
	}

	engine := attribution.NewEngine(cfg.Attribution, log, rec)
	if src.Names != nil {
		engine.WithNames(func(ctx context.Context, symbol string) (string, error) {
			return src.Names.FetchDisplayName(ctx, symbol)
		})
	}

	return &Service{
		cfg:         cfg,
		src:         src,
		attribution: engine,
		risk:        risk.NewEngine(),
		limiter:     rate.NewLimiter(limit, 1),
		logger:      log,
		metrics:     rec,
	}, nil
}

// Run analyses one ETF over the requested period.
// A missing or empty ETF series fails the run (contracts.ErrNoData); a missing
// benchmark only makes the metrics N/A; constituent failures become zero rows.
func (s *Service) Run(ctx context.Context, req Request) (report *Report, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveAnalysis("etf", started, err) }()

	if err := req.Period.Validate(); err != nil {
		return nil, err
	}

	etf := s.instrument(ctx, req.ETF)
	benchmark := req.Benchmark
	if benchmark == "" {
		benchmark = s.cfg.Benchmark
	}
	log := s.logger.WithFields(map[string]interface{}{
		"etf":       etf.Code,
		"benchmark": benchmark,
		"period":    req.Period.String(),
	})

	report = &Report{ETF: etf, Benchmark: benchmark, Period: req.Period}

	// 1. ETF 가격 / 총수익률
	etfSeries, err := s.src.ETFPrices.FetchPriceHistory(ctx, etf.Code, req.Period.Start, req.Period.End)
	if err != nil {
		return nil, fmt.Errorf("fetch %s prices: %w", etf.Code, err)
	}
	if etfSeries.IsEmpty() {
		return nil, fmt.Errorf("%s %s: %w", etf.Code, req.Period, contracts.ErrNoData)
	}

	report.ReturnBasis = BasisClose
	field := returns.Close
	if etfSeries.HasNAV() {
		report.ReturnBasis = BasisNAV
		field = returns.NAV
	}
	report.TotalReturn, err = returns.PeriodReturnBy(etfSeries, field)
	if err != nil {
		return nil, fmt.Errorf("%s total return: %w", etf.Code, err)
	}
	report.StartPrice = etfSeries.First().Close
	report.EndPrice = etfSeries.Last().Close

	// 2. 벤치마크 / 위험 지표
	report.BenchmarkReturn, report.Metrics = s.compareBenchmark(ctx, report, etfSeries, benchmark, log)

	// 3. 구성종목 기여도
	if err := s.attribute(ctx, report, etf.Code, log); err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"total_return": report.TotalReturn,
		"basis":        report.ReturnBasis,
		"holdings":     len(report.Holdings),
		"duration":     time.Since(started),
	}).Info("Analysis completed")
	return report, nil
}

// instrument parses "code | name" and looks up a display name when only a code is given
func (s *Service) instrument(ctx context.Context, text string) contracts.Instrument {
	code := contracts.ParseTicker(text)
	inst := contracts.Instrument{Code: code, Name: code}
	if _, name, ok := strings.Cut(text, "|"); ok && strings.TrimSpace(name) != "" {
		inst.Name = strings.TrimSpace(name)
		return inst
	}
	inst.Name = contracts.DisplayNameOr(ctx, s.src.Names, code)
	return inst
}

func (s *Service) compareBenchmark(
	ctx context.Context,
	report *Report,
	etfSeries contracts.PriceSeries,
	benchmark string,
	log *logger.Logger,
) (contracts.Ratio, contracts.Metrics) {
	unavailable := func(reason string, err error) (contracts.Ratio, contracts.Metrics) {
		l := log
		if err != nil {
			l = l.WithError(err)
		}
		l.Warn(reason)
		report.Warnings = append(report.Warnings, reason)
		return contracts.NA(), s.risk.ComputeWithoutBenchmark()
	}

	bSeries, err := s.src.Benchmark.FetchPriceHistory(ctx, benchmark, report.Period.Start, report.Period.End)
	if err != nil {
		return unavailable("benchmark unavailable", err)
	}
	if bSeries.IsEmpty() {
		return unavailable("benchmark has no data for the period", nil)
	}

	bTotal, err := returns.PeriodReturn(bSeries)
	if err != nil {
		return unavailable("benchmark return unavailable", err)
	}

	rDaily, err := returns.DailyReturns(etfSeries)
	if err != nil {
		return unavailable("ETF daily returns unavailable", err)
	}
	bDaily, err := returns.DailyReturns(bSeries)
	if err != nil {
		return unavailable("benchmark daily returns unavailable", err)
	}

	aligned, err := returns.Align(rDaily, bDaily)
	if err != nil && !errors.Is(err, contracts.ErrEmptyAlignment) {
		return unavailable("alignment failed", err)
	}
	// 겹치는 날짜가 없으면 초과수익률만 유효
	return contracts.Some(bTotal), s.risk.Compute(aligned, report.TotalReturn, bTotal)
}

// attribute loads holdings (start date, falling back to end date) and attributes them
func (s *Service) attribute(ctx context.Context, report *Report, code string, log *logger.Logger) error {
	table, asOf, err := s.holdings(ctx, code, report.Period)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("Holdings unavailable")
		report.Warnings = append(report.Warnings, "holdings unavailable")
		report.Holdings = contracts.HoldingsTable{}
		return nil
	}
	if len(table) == 0 {
		report.Warnings = append(report.Warnings, "no holdings disclosed for the period")
		report.Holdings = contracts.HoldingsTable{}
		return nil
	}

	fetch := func(ctx context.Context, symbol string, start, end time.Time) (contracts.PriceSeries, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return s.src.Constituents.FetchPriceHistory(ctx, symbol, start, end)
	}

	attributed, err := s.attribution.Attribute(ctx, table, fetch, report.Period)
	if err != nil {
		return err
	}

	report.Holdings = attributed
	report.HoldingsAsOf = asOf.Format(contracts.DateLayout)
	report.Summary = attribution.Summarize(attributed, asOf)
	return nil
}

// holdings returns the PDF on the start date, or on the end date when the start is empty
func (s *Service) holdings(ctx context.Context, code string, period contracts.DateRange) (contracts.HoldingsTable, time.Time, error) {
	table, err := s.src.Holdings.FetchHoldings(ctx, code, period.Start)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("holdings at start: %w", err)
	}
	if len(table) > 0 {
		return table, period.Start, nil
	}

	table, err = s.src.Holdings.FetchHoldings(ctx, code, period.End)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("holdings at end: %w", err)
	}
	return table, period.End, nil
}
