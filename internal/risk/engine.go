package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/etfscope/internal/contracts"
)

// =============================================================================
// RiskMetrics Engine - 순수 계산기
// =============================================================================

// TradingDaysPerYear is the fixed annualization constant (not inferred from calendars)
const TradingDaysPerYear = 252

// Engine computes risk-adjusted ratios from aligned daily returns
// ⭐ SSOT: 위험 지표(Sharpe/Beta/Treynor/초과수익) 계산은 여기서만
// 데이터 조회/정렬은 상위 레이어(internal/analysis)에서 조립해서 전달
type Engine struct {
	tradingDays float64
}

// NewEngine 새 리스크 엔진 생성
func NewEngine() *Engine {
	return &Engine{tradingDays: TradingDaysPerYear}
}

// Compute builds the metrics record.
// aligned.A = instrument daily returns (r), aligned.B = benchmark daily returns (b),
// instrumentTotal / benchmarkTotal are period returns in percent.
func (e *Engine) Compute(aligned contracts.AlignedReturns, instrumentTotal, benchmarkTotal float64) contracts.Metrics {
	r := aligned.A()
	b := aligned.B()

	beta := e.Beta(r, b)
	return contracts.Metrics{
		Sharpe:       e.Sharpe(r),
		Treynor:      e.Treynor(r, beta),
		ExcessReturn: ExcessReturn(instrumentTotal, benchmarkTotal),
		Beta:         beta,
	}
}

// ComputeWithoutBenchmark is the result when the benchmark could not be loaded:
// every ratio is N/A, none is coerced to 0
func (e *Engine) ComputeWithoutBenchmark() contracts.Metrics {
	return contracts.UnavailableMetrics()
}

// =============================================================================
// Individual ratios
// =============================================================================

// ExcessReturn returns instrument minus benchmark period return (%p)
func ExcessReturn(instrumentTotal, benchmarkTotal float64) contracts.Ratio {
	return contracts.Some(instrumentTotal - benchmarkTotal)
}

// Sharpe returns mean(r)/sd(r)*sqrt(252) with a zero risk-free rate.
// sd is the sample (n-1) standard deviation; fewer than 2 points or sd == 0 is N/A.
func (e *Engine) Sharpe(r []float64) contracts.Ratio {
	if len(r) < 2 {
		return contracts.NA()
	}
	mean, sd := stat.MeanStdDev(r, nil)
	if sd == 0 || !finite(sd) {
		return contracts.NA()
	}
	return finiteOrNA(mean / sd * math.Sqrt(e.tradingDays))
}

// Beta returns cov(r, b) / var(b) using sample moments; var(b) == 0 is N/A
func (e *Engine) Beta(r, b []float64) contracts.Ratio {
	if len(r) < 2 || len(r) != len(b) {
		return contracts.NA()
	}
	variance := stat.Variance(b, nil)
	if variance == 0 || !finite(variance) {
		return contracts.NA()
	}
	return finiteOrNA(stat.Covariance(r, b, nil) / variance)
}

// Treynor returns mean(r)*252/beta; unavailable or zero beta is N/A
func (e *Engine) Treynor(r []float64, beta contracts.Ratio) contracts.Ratio {
	if len(r) == 0 || !beta.Valid || beta.Value == 0 {
		return contracts.NA()
	}
	return finiteOrNA(stat.Mean(r, nil) * e.tradingDays / beta.Value)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrNA(v float64) contracts.Ratio {
	if !finite(v) {
		return contracts.NA()
	}
	return contracts.Some(v)
}
