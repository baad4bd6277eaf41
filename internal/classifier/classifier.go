package classifier

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/etfscope/internal/contracts"
)

// Category is the classification outcome of an instrument name
type Category string

const (
	DomesticEquity Category = "domestic_equity"
	Foreign        Category = "foreign"
	Bond           Category = "bond"
)

// Keywords are the case-sensitive substrings that exclude an instrument
type Keywords struct {
	Foreign []string `yaml:"foreign"`
	Bond    []string `yaml:"bond"`
}

// DefaultKeywords returns the built-in exclusion lists
// ⭐ SSOT: 해외/채권 ETF 판별 키워드 기본값
func DefaultKeywords() Keywords {
	return Keywords{
		Foreign: []string{
			"미국", "S&P", "나스닥", "NASDAQ", "China", "중국", "HongKong", "홍콩",
			"Japan", "일본", "Vietnam", "베트남", "India", "인도", "Euro", "유로",
			"Global", "글로벌", "MSCI", "Latin", "라틴", "Brazil", "브라질",
			"Russia", "러시아", "Shenzhen", "심천", "CSI", "HangSeng", "항셍",
			"Bloomberg", "블룸버그", "Solactive", "STOXX", "Morningstar", "모닝스타",
			"NYSE", "FANG", "팡플러스",
		},
		Bond: []string{
			"채권", "국채", "국고채", "단기채", "회사채", "Bond", "Treasury", "KOFR", "CD금리",
		},
	}
}

// LoadKeywords reads keyword lists from a YAML file
func LoadKeywords(path string) (Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("read keywords file: %w", err)
	}
	return ParseKeywords(bytes.NewReader(data))
}

// ParseKeywords decodes keyword lists; unknown fields and empty keywords are rejected
func ParseKeywords(r io.Reader) (Keywords, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var kw Keywords
	if err := dec.Decode(&kw); err != nil {
		return Keywords{}, fmt.Errorf("decode keywords yaml: %w", err)
	}
	for _, list := range [][]string{kw.Foreign, kw.Bond} {
		for _, k := range list {
			if strings.TrimSpace(k) == "" {
				return Keywords{}, fmt.Errorf("empty keyword is not allowed")
			}
		}
	}
	return kw, nil
}

// Verdict is the classification of one name
type Verdict struct {
	InScope  bool     `json:"in_scope"`
	Category Category `json:"category"`
	Keyword  string   `json:"keyword,omitempty"` // 제외 사유가 된 키워드
}

// Classifier decides whether an instrument is a domestic equity ETF by name
type Classifier struct {
	kw Keywords
}

// New creates a classifier over the given keyword lists
func New(kw Keywords) *Classifier {
	return &Classifier{kw: kw}
}

// NewFromFile loads keywords from path, or uses the defaults when path is empty
func NewFromFile(path string) (*Classifier, error) {
	if path == "" {
		return New(DefaultKeywords()), nil
	}
	kw, err := LoadKeywords(path)
	if err != nil {
		return nil, err
	}
	return New(kw), nil
}

// Classify checks the foreign list first, then the bond list; the first match wins
func (c *Classifier) Classify(name string) Verdict {
	for _, k := range c.kw.Foreign {
		if strings.Contains(name, k) {
			return Verdict{Category: Foreign, Keyword: k}
		}
	}
	for _, k := range c.kw.Bond {
		if strings.Contains(name, k) {
			return Verdict{Category: Bond, Keyword: k}
		}
	}
	return Verdict{InScope: true, Category: DomesticEquity}
}

// IsInScope reports whether name is a domestic equity instrument
func (c *Classifier) IsInScope(name string) bool {
	return c.Classify(name).InScope
}

// Filter keeps in-scope instruments (order preserved) and counts the excluded per category
func (c *Classifier) Filter(universe []contracts.Instrument) ([]contracts.Instrument, map[Category]int) {
	kept := make([]contracts.Instrument, 0, len(universe))
	excluded := make(map[Category]int)
	for _, inst := range universe {
		v := c.Classify(inst.Name)
		if v.InScope {
			kept = append(kept, inst)
			continue
		}
		excluded[v.Category]++
	}
	return kept, excluded
}
