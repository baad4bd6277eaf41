package contracts

import (
	"encoding/json"
	"fmt"
)

// NotAvailable is how an unavailable ratio is rendered
const NotAvailable = "N/A"

// Ratio is a numeric metric or the "not available" sentinel.
// 0 과 N/A 는 서로 다른 값이다.
type Ratio struct {
	Value float64
	Valid bool
}

// Some wraps an available value
func Some(v float64) Ratio {
	return Ratio{Value: v, Valid: true}
}

// NA returns the not-available sentinel
func NA() Ratio {
	return Ratio{}
}

// Equal compares two ratios; two N/A values are equal, N/A never equals a number
func (r Ratio) Equal(o Ratio) bool {
	if r.Valid != o.Valid {
		return false
	}
	return !r.Valid || r.Value == o.Value
}

// String renders with two decimals or N/A
func (r Ratio) String() string {
	return r.Format("%.2f")
}

// Format renders with the given verb or N/A
func (r Ratio) Format(verb string) string {
	if !r.Valid {
		return NotAvailable
	}
	return fmt.Sprintf(verb, r.Value)
}

// MarshalJSON renders N/A as null
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts a number or null
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = NA()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("ratio: %w", err)
	}
	*r = Some(v)
	return nil
}

// Metrics is the immutable risk summary of an instrument against its benchmark
// ⭐ SSOT: 위험 지표 결과 타입
type Metrics struct {
	Sharpe       Ratio `json:"sharpe"`
	Treynor      Ratio `json:"treynor"`
	ExcessReturn Ratio `json:"excess_return"` // %p
	Beta         Ratio `json:"beta"`
}

// UnavailableMetrics is returned when no benchmark comparison is possible
func UnavailableMetrics() Metrics {
	return Metrics{Sharpe: NA(), Treynor: NA(), ExcessReturn: NA(), Beta: NA()}
}
