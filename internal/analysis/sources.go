package analysis

import (
	"context"
	"time"

	"github.com/wonny/etfscope/internal/contracts"
)

// PriceChain asks each source in order and returns the first non-empty series
// (domestic portal first, then a global source for foreign identifiers).
// Source errors are returned only when no source had data.
type PriceChain []contracts.PriceSource

// FetchPriceHistory implements contracts.PriceSource
func (c PriceChain) FetchPriceHistory(ctx context.Context, identifier string, start, end time.Time) (contracts.PriceSeries, error) {
	var firstErr error
	for _, src := range c {
		series, err := src.FetchPriceHistory(ctx, identifier, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !series.IsEmpty() {
			return series, nil
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return contracts.PriceSeries{}, nil
}

// NameChain returns the first non-empty display name
type NameChain []contracts.NameSource

// FetchDisplayName implements contracts.NameSource
func (c NameChain) FetchDisplayName(ctx context.Context, identifier string) (string, error) {
	var firstErr error
	for _, src := range c {
		name, err := src.FetchDisplayName(ctx, identifier)
		if err == nil && name != "" {
			return name, nil
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = contracts.ErrNotFound
	}
	return "", firstErr
}

// UniverseChain returns the first non-empty universe listing
type UniverseChain []contracts.UniverseSource

// ListUniverse implements contracts.UniverseSource
func (c UniverseChain) ListUniverse(ctx context.Context) ([]contracts.Instrument, error) {
	var firstErr error
	for _, src := range c {
		items, err := src.ListUniverse(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(items) > 0 {
			return items, nil
		}
	}
	return nil, firstErr
}
