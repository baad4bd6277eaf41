package contracts

import (
	"context"
	"time"
)

// PriceSource returns daily prices for an identifier.
// An identifier without data yields an empty series and a nil error;
// errors are reserved for transport/auth failures.
// ⭐ SSOT: 가격 조회 인터페이스
type PriceSource interface {
	FetchPriceHistory(ctx context.Context, identifier string, start, end time.Time) (PriceSeries, error)
}

// HoldingsSource returns the disclosed holdings of an ETF on a date (may be empty)
type HoldingsSource interface {
	FetchHoldings(ctx context.Context, identifier string, asOf time.Time) (HoldingsTable, error)
}

// NameSource returns a display name for an identifier
type NameSource interface {
	FetchDisplayName(ctx context.Context, identifier string) (string, error)
}

// UniverseSource lists every instrument available for analysis
type UniverseSource interface {
	ListUniverse(ctx context.Context) ([]Instrument, error)
}

// PriceFetchFunc adapts a PriceSource to the attribution engine's fetch capability
type PriceFetchFunc func(ctx context.Context, symbol string, start, end time.Time) (PriceSeries, error)

// NameFunc adapts a NameSource to the attribution engine's name capability
type NameFunc func(ctx context.Context, symbol string) (string, error)

// DisplayNameOr asks src for a name and echoes the identifier on any failure
func DisplayNameOr(ctx context.Context, src NameSource, identifier string) string {
	if src == nil {
		return identifier
	}
	name, err := src.FetchDisplayName(ctx, identifier)
	if err != nil || name == "" {
		return identifier
	}
	return name
}
