package ranking

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wonny/etfscope/internal/contracts"
)

// Column identifies a sortable column of the constituent table
type Column int

const (
	ColumnSymbol Column = iota
	ColumnName
	ColumnWeight
	ColumnAmount
	ColumnReturn
	ColumnContribution
)

var columnNames = map[Column]string{
	ColumnSymbol:       "symbol",
	ColumnName:         "name",
	ColumnWeight:       "weight",
	ColumnAmount:       "amount",
	ColumnReturn:       "return",
	ColumnContribution: "contribution",
}

func (c Column) String() string {
	if s, ok := columnNames[c]; ok {
		return s
	}
	return fmt.Sprintf("column(%d)", int(c))
}

// MarshalText renders the column name in JSON
func (c Column) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseColumn resolves a column by its name (case-insensitive)
func ParseColumn(name string) (Column, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, s := range columnNames {
		if s == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown column %q", name)
}

// Direction is the sort state of the active column
type Direction int

const (
	Default Direction = iota // 기본 순서 (비중 내림차순)
	Desc
	Asc
)

func (d Direction) String() string {
	switch d {
	case Desc:
		return "desc"
	case Asc:
		return "asc"
	default:
		return "default"
	}
}

// MarshalText renders the direction name in JSON
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ParseDirection resolves "desc", "asc" or "default" (empty means default)
func ParseDirection(name string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return Default, nil
	case "desc":
		return Desc, nil
	case "asc":
		return Asc, nil
	}
	return Default, fmt.Errorf("unknown direction %q", name)
}

// State is the ranker's current (column, direction)
type State struct {
	Column    Column    `json:"column"`
	Direction Direction `json:"direction"`
}

// Ranker re-orders the attributed rows on header clicks.
// ⭐ SSOT: 구성종목 테이블 정렬 상태는 여기서만
// Cycle per column: DESC → ASC → DEFAULT; a different column restarts at DESC.
type Ranker struct {
	baseline contracts.HoldingsTable
	state    State
	active   bool // 한 번이라도 클릭됐는지
}

// New captures rows as the DEFAULT order
func New(rows contracts.HoldingsTable) *Ranker {
	return &Ranker{baseline: rows.Clone()}
}

// State returns the current sort state
func (r *Ranker) State() State {
	return r.state
}

// Rows returns the rows in the current order
func (r *Ranker) Rows() contracts.HoldingsTable {
	if r.state.Direction == Default {
		return r.baseline.Clone()
	}
	return Sort(r.baseline, r.state.Column, r.state.Direction)
}

// Click advances the sort state for col and returns the re-ordered rows
func (r *Ranker) Click(col Column) (contracts.HoldingsTable, State) {
	if !r.active || r.state.Column != col {
		r.state = State{Column: col, Direction: Desc}
		r.active = true
	} else {
		r.state.Direction = (r.state.Direction + 1) % 3
	}
	return r.Rows(), r.state
}

// Sort returns a stably sorted copy of rows; missing values always sort last
func Sort(rows contracts.HoldingsTable, col Column, dir Direction) contracts.HoldingsTable {
	out := rows.Clone()
	if dir == Default {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		// 값 없는 행은 방향과 무관하게 항상 뒤로
		aMissing, bMissing := missing(a, col), missing(b, col)
		if aMissing || bMissing {
			return !aMissing && bMissing
		}

		c := compare(a, b, col)
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func missing(h contracts.Holding, col Column) bool {
	return col == ColumnAmount && h.Amount == nil
}

func compare(a, b contracts.Holding, col Column) int {
	switch col {
	case ColumnSymbol:
		return strings.Compare(a.Symbol, b.Symbol)
	case ColumnName:
		return strings.Compare(a.DisplayName(), b.DisplayName())
	case ColumnWeight:
		return cmpFloat(a.WeightPct, b.WeightPct)
	case ColumnAmount:
		return cmpFloat(*a.Amount, *b.Amount)
	case ColumnReturn:
		return cmpFloat(a.Return, b.Return)
	case ColumnContribution:
		return cmpFloat(a.Contribution, b.Contribution)
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// =============================================================================
// Display
// =============================================================================

var printer = message.NewPrinter(language.Korean)

// Cell renders the display text of one cell
func Cell(h contracts.Holding, col Column) string {
	switch col {
	case ColumnSymbol:
		return h.Symbol
	case ColumnName:
		return h.DisplayName()
	case ColumnWeight:
		return fmt.Sprintf("%.2f", h.WeightPct)
	case ColumnAmount:
		if h.Amount == nil {
			return contracts.NotAvailable
		}
		return printer.Sprintf("%d", int64(math.Round(*h.Amount)))
	case ColumnReturn:
		return fmt.Sprintf("%.2f", h.Return)
	case ColumnContribution:
		return fmt.Sprintf("%.2f", h.Contribution)
	}
	return ""
}

// Columns lists the display columns in table order
func Columns() []Column {
	return []Column{ColumnSymbol, ColumnName, ColumnWeight, ColumnAmount, ColumnReturn, ColumnContribution}
}

// Tone classifies a contribution for highlighting (|c| > 0.5%p is significant)
type Tone int

const (
	ToneNeutral Tone = iota
	ToneUp
	ToneDown
	ToneStrongUp
	ToneStrongDown
)

var toneNames = [...]string{"neutral", "up", "down", "strong_up", "strong_down"}

func (t Tone) String() string {
	if t >= 0 && int(t) < len(toneNames) {
		return toneNames[t]
	}
	return "neutral"
}

// SignificantContribution is the %p threshold for strong highlighting
const SignificantContribution = 0.5

// ContributionTone returns the highlight tone of a contribution value
func ContributionTone(c float64) Tone {
	switch {
	case c > SignificantContribution:
		return ToneStrongUp
	case c < -SignificantContribution:
		return ToneStrongDown
	case c > 0:
		return ToneUp
	case c < 0:
		return ToneDown
	}
	return ToneNeutral
}

// =============================================================================
// Selection sum
// =============================================================================

// SelectionSum is the count/total of the numeric cells among a selection
type SelectionSum struct {
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
	Selected bool    `json:"selected"` // 숫자 셀이 하나라도 있는지
}

// SumSelected parses cell texts (thousands separators and % stripped) and
// sums the numeric ones; non-numeric cells are ignored
func SumSelected(cells []string) SelectionSum {
	var s SelectionSum
	for _, text := range cells {
		text = strings.NewReplacer(",", "", "%", "").Replace(strings.TrimSpace(text))
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		s.Total += v
		s.Count++
	}
	s.Selected = s.Count > 0
	return s
}

// String renders "개수: N | 합계: 1,234.00" or "합계: -"
func (s SelectionSum) String() string {
	if !s.Selected {
		return "합계: -"
	}
	return printer.Sprintf("개수: %d | 합계: %.2f", s.Count, s.Total)
}
