package holdings

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/etfscope/internal/contracts"
)

// Scale is the unit a source reports weights in
type Scale string

const (
	ScalePercent  Scale = "percent"  // 7.0 = 7%
	ScaleFraction Scale = "fraction" // 0.07 = 7%
	ScaleAuto     Scale = "auto"
)

// fractionTolerance allows rounding noise when detecting fractional weights
const fractionTolerance = 0.05

// DetectScale guesses the weight unit: all weights within [0,1] summing to ~1 or less is fractional
func DetectScale(table contracts.HoldingsTable) Scale {
	if len(table) == 0 {
		return ScalePercent
	}
	var sum float64
	for _, h := range table {
		if h.WeightPct > 1 {
			return ScalePercent
		}
		sum += h.WeightPct
	}
	if sum <= 1+fractionTolerance {
		return ScaleFraction
	}
	return ScalePercent
}

// Normalize returns a copy with weights in percent, symbols trimmed, and
// rows without a symbol or with a non-finite/negative weight dropped.
// ⭐ SSOT: 가중치 단위 변환은 수집 단계에서 한 번만
func Normalize(table contracts.HoldingsTable, scale Scale) (contracts.HoldingsTable, error) {
	if scale == ScaleAuto || scale == "" {
		scale = DetectScale(table)
	}

	var factor float64
	switch scale {
	case ScalePercent:
		factor = 1
	case ScaleFraction:
		factor = 100
	default:
		return nil, fmt.Errorf("unknown weight scale %q", scale)
	}

	out := make(contracts.HoldingsTable, 0, len(table))
	for _, h := range table.Clone() {
		h.Symbol = strings.TrimSpace(h.Symbol)
		h.Name = strings.TrimSpace(h.Name)
		if h.Symbol == "" {
			continue
		}
		if math.IsNaN(h.WeightPct) || math.IsInf(h.WeightPct, 0) || h.WeightPct < 0 {
			continue
		}
		h.WeightPct *= factor
		out = append(out, h)
	}
	return out, nil
}
