package contracts

// Holding is one disclosed constituent of the basket instrument.
// WeightPct is always a plain percentage (7.0 = 7%) inside the engine;
// sources using fractions are normalized at ingestion (see internal/holdings).
type Holding struct {
	Symbol    string   `json:"symbol"`
	WeightPct float64  `json:"weight_pct"`
	Amount    *float64 `json:"amount,omitempty"` // 평가금액 (소스가 제공하는 경우)
	Name      string   `json:"name"`

	// Populated by the attribution engine
	Return       float64 `json:"return"`       // 기간 수익률 (%)
	Contribution float64 `json:"contribution"` // 기여도 (%p)
	Attributed   bool    `json:"attributed"`   // top-N 에 포함되어 계산되었는지
	Resolved     bool    `json:"resolved"`     // 가격 데이터를 찾았는지
}

// DisplayName returns the name, falling back to the symbol
func (h Holding) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return h.Symbol
}

// HoldingsTable is the disclosed portfolio on one date, in canonical order
type HoldingsTable []Holding

// Clone returns a deep copy so the caller's table is never mutated behind its back
func (t HoldingsTable) Clone() HoldingsTable {
	out := make(HoldingsTable, len(t))
	for i, h := range t {
		if h.Amount != nil {
			v := *h.Amount
			h.Amount = &v
		}
		out[i] = h
	}
	return out
}

// TotalWeight sums WeightPct over all rows
func (t HoldingsTable) TotalWeight() float64 {
	var sum float64
	for _, h := range t {
		sum += h.WeightPct
	}
	return sum
}

// TotalContribution sums Contribution over all rows
func (t HoldingsTable) TotalContribution() float64 {
	var sum float64
	for _, h := range t {
		sum += h.Contribution
	}
	return sum
}

// Attributed returns only the rows that went through attribution
func (t HoldingsTable) Attributed() HoldingsTable {
	out := make(HoldingsTable, 0, len(t))
	for _, h := range t {
		if h.Attributed {
			out = append(out, h)
		}
	}
	return out
}
