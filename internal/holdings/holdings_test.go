package holdings

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfscope/internal/contracts"
)

func TestDetectScale(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		want    Scale
	}{
		{"fractions", []float64{0.31, 0.12, 0.05}, ScaleFraction},
		{"full fractions with rounding", []float64{0.5, 0.3, 0.22}, ScaleFraction},
		{"percent", []float64{31.2, 12.1, 5}, ScalePercent},
		{"small percents", []float64{0.9, 0.8, 0.7}, ScalePercent},
		{"empty", nil, ScalePercent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := make(contracts.HoldingsTable, len(tt.weights))
			for i, w := range tt.weights {
				table[i] = contracts.Holding{Symbol: "X", WeightPct: w}
			}
			assert.Equal(t, tt.want, DetectScale(table))
		})
	}
}

func TestNormalize_Fraction(t *testing.T) {
	in := contracts.HoldingsTable{
		{Symbol: " AAPL ", WeightPct: 0.07},
		{Symbol: "MSFT", WeightPct: 0.065},
	}

	got, err := Normalize(in, ScaleFraction)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.InDelta(t, 7.0, got[0].WeightPct, 1e-12)
	assert.InDelta(t, 6.5, got[1].WeightPct, 1e-12)
	assert.InDelta(t, 0.07, in[0].WeightPct, 1e-12, "input untouched")
}

func TestNormalize_DropsBadRows(t *testing.T) {
	in := contracts.HoldingsTable{
		{Symbol: "005930", WeightPct: 30},
		{Symbol: "", WeightPct: 5},
		{Symbol: "CASH", WeightPct: math.NaN()},
		{Symbol: "SHORT", WeightPct: -1},
	}

	got, err := Normalize(in, ScalePercent)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "005930", got[0].Symbol)

	_, err = Normalize(in, Scale("basis_points"))
	assert.Error(t, err)
}

func TestParseSnapshot(t *testing.T) {
	doc := `
etf: QQQ
as_of: "2024-03-29"
scale: fraction
holdings:
  - symbol: MSFT
    name: Microsoft
    weight: 0.0875
    amount: 1500000
  - symbol: AAPL
    weight: 0.075
`
	snap, err := ParseSnapshot(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "QQQ", snap.ETF)
	assert.Equal(t, time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), snap.AsOf)
	require.Len(t, snap.Holdings, 2)
	assert.InDelta(t, 8.75, snap.Holdings[0].WeightPct, 1e-12)
	require.NotNil(t, snap.Holdings[0].Amount)
	assert.Equal(t, 1500000.0, *snap.Holdings[0].Amount)
	assert.Nil(t, snap.Holdings[1].Amount)
}

func TestParseSnapshot_UnknownField(t *testing.T) {
	_, err := ParseSnapshot(strings.NewReader("etf: QQQ\nissuer: invesco\n"))
	assert.Error(t, err)
}

func writeSnapshot(t *testing.T, dir, etf, date, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, etf), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, etf, date+".yaml"), []byte(body), 0o644))
}

func TestFileSource_LatestOnOrBefore(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "QQQ", "2024-01-02", "holdings:\n  - symbol: OLD\n    weight: 100\n")
	writeSnapshot(t, dir, "QQQ", "2024-02-01", "holdings:\n  - symbol: NEW\n    weight: 100\n")

	src := NewFileSource(dir)
	ctx := context.Background()

	got, err := src.FetchHoldings(ctx, "QQQ", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "OLD", got[0].Symbol)

	got, err = src.FetchHoldings(ctx, "QQQ", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "NEW", got[0].Symbol)

	got, err = src.FetchHoldings(ctx, "QQQ", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, got, "no snapshot before the date")

	got, err = src.FetchHoldings(ctx, "SPY", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, got, "unknown etf is empty, not an error")
}
