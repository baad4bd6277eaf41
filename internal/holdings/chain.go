package holdings

import (
	"context"
	"time"

	"github.com/wonny/etfscope/internal/contracts"
)

// Chain asks each source in order and returns the first non-empty table.
// A source error does not stop the chain; it is returned only when no source had holdings.
type Chain []contracts.HoldingsSource

// FetchHoldings implements contracts.HoldingsSource
func (c Chain) FetchHoldings(ctx context.Context, identifier string, asOf time.Time) (contracts.HoldingsTable, error) {
	var firstErr error
	for _, src := range c {
		table, err := src.FetchHoldings(ctx, identifier, asOf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(table) > 0 {
			return table, nil
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return contracts.HoldingsTable{}, nil
}
