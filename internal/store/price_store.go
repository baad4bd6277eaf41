package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/resolver"
)

// querier is the part of *pgxpool.Pool the store uses
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PriceStore reads daily closes collected into data.daily_prices.
// It is read-only; collection is done by an external batch.
// ⭐ SSOT: DB 가격 조회는 여기서만
type PriceStore struct {
	db querier
}

// NewPriceStore creates a store over a pgx pool (or any compatible querier)
func NewPriceStore(db querier) *PriceStore {
	return &PriceStore{db: db}
}

// FetchPriceHistory implements contracts.PriceSource
func (s *PriceStore) FetchPriceHistory(ctx context.Context, identifier string, start, end time.Time) (contracts.PriceSeries, error) {
	query := `
		SELECT trade_date, close_price
		FROM data.daily_prices
		WHERE stock_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := s.db.Query(ctx, query, stockCode(identifier), contracts.DateOf(start), contracts.DateOf(end))
	if err != nil {
		return nil, fmt.Errorf("query daily prices: %w", err)
	}
	defer rows.Close()

	series := make(contracts.PriceSeries, 0)
	for rows.Next() {
		var (
			date       time.Time
			closePrice float64
		)
		if err := rows.Scan(&date, &closePrice); err != nil {
			return nil, fmt.Errorf("scan daily price: %w", err)
		}
		series = append(series, contracts.PricePoint{Date: contracts.DateOf(date), Close: closePrice})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily prices: %w", err)
	}
	return series, nil
}

// FetchAttribute implements the "db" listing-date provider: the earliest stored trade date
func (s *PriceStore) FetchAttribute(ctx context.Context, identifier, key string) (time.Time, bool, error) {
	if key != resolver.KeyListingDate {
		return time.Time{}, false, nil
	}

	query := `
		SELECT MIN(trade_date)
		FROM data.daily_prices
		WHERE stock_code = $1
	`

	var first *time.Time
	if err := s.db.QueryRow(ctx, query, stockCode(identifier)).Scan(&first); err != nil {
		return time.Time{}, false, fmt.Errorf("query first trade date: %w", err)
	}
	if first == nil {
		return time.Time{}, false, nil
	}
	return contracts.DateOf(*first), true, nil
}

// stockCode strips a market suffix; the table is keyed by the 6-digit code
func stockCode(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "."); i > 0 {
		return id[:i]
	}
	return id
}
