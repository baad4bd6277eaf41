package contracts

import "errors"

// Error taxonomy shared by every engine package.
// 호출자는 errors.Is 로 비교한다.
var (
	// ErrEmptyAlignment means two return series share no date
	ErrEmptyAlignment = errors.New("no overlapping dates between series")

	// ErrInsufficientData means a series has fewer points than the calculation needs
	ErrInsufficientData = errors.New("insufficient price data")

	// ErrInvalidPrice means a non-positive base price made a return meaningless
	ErrInvalidPrice = errors.New("invalid (non-positive) base price")

	// ErrNotFound means a resolution plan was exhausted. It is an expected outcome.
	ErrNotFound = errors.New("attribute not found")

	// ErrNoData means the primary instrument has no prices for the requested period
	ErrNoData = errors.New("no data found for this ticker/period")

	// ErrInvalidRange means the caller supplied an unusable date range
	ErrInvalidRange = errors.New("invalid date range")
)
