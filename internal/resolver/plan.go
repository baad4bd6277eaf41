package resolver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is how an attempt derives the identifier from the base code
type Kind string

const (
	KindAsGiven Kind = "as_given" // 입력 그대로 (이미 시장 접미사가 있는 경우만)
	KindSuffix  Kind = "suffix"   // 기본 코드 + 접미사 (.KS, .KQ)
	KindBare    Kind = "bare"     // 접미사 제거한 기본 코드
)

// Variant is the identifier transformation of one attempt
type Variant struct {
	Kind   Kind   `yaml:"kind" json:"kind"`
	Suffix string `yaml:"suffix,omitempty" json:"suffix,omitempty"`
}

// AsGiven uses the identifier unchanged
func AsGiven() Variant { return Variant{Kind: KindAsGiven} }

// WithSuffix appends a market suffix to the bare code
func WithSuffix(s string) Variant { return Variant{Kind: KindSuffix, Suffix: s} }

// Bare strips any market suffix
func Bare() Variant { return Variant{Kind: KindBare} }

// Apply derives the identifier for base; ok=false means the variant does not apply
func (v Variant) Apply(base string) (string, bool) {
	code, suffix := SplitSuffix(base)
	if code == "" {
		return "", false
	}
	switch v.Kind {
	case KindAsGiven:
		if suffix == "" {
			return "", false
		}
		return base, true
	case KindSuffix:
		if v.Suffix == "" {
			return "", false
		}
		return code + v.Suffix, true
	case KindBare:
		return code, true
	}
	return "", false
}

func (v Variant) String() string {
	if v.Kind == KindSuffix {
		return string(v.Kind) + "(" + v.Suffix + ")"
	}
	return string(v.Kind)
}

// SplitSuffix splits "005930.KS" into ("005930", ".KS")
func SplitSuffix(id string) (code, suffix string) {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "."); i > 0 {
		return id[:i], id[i:]
	}
	return id, ""
}

// Attempt is one (provider, variant) pair of a plan
type Attempt struct {
	Provider string  `yaml:"provider" json:"provider"`
	Variant  Variant `yaml:",inline" json:"variant"`
}

// Plan is an ordered list of attempts
type Plan []Attempt

// Provider ids used by the default plans
const (
	ProviderYahoo = "yahoo"
	ProviderKRX   = "krx"
	ProviderDB    = "db"
)

// DefaultListingDatePlan is as-given → .KS → .KQ via Yahoo, then the bare code via KRX
// ⭐ SSOT: 상장일 조회 순서
func DefaultListingDatePlan() Plan {
	return Plan{
		{Provider: ProviderYahoo, Variant: AsGiven()},
		{Provider: ProviderYahoo, Variant: WithSuffix(".KS")},
		{Provider: ProviderYahoo, Variant: WithSuffix(".KQ")},
		{Provider: ProviderKRX, Variant: Bare()},
	}
}

// Validate checks every attempt of the plan
func (p Plan) Validate() error {
	if len(p) == 0 {
		return errors.New("plan has no attempts")
	}
	for i, a := range p {
		if a.Provider == "" {
			return fmt.Errorf("attempt %d: provider is required", i+1)
		}
		switch a.Variant.Kind {
		case KindAsGiven, KindBare:
		case KindSuffix:
			if !strings.HasPrefix(a.Variant.Suffix, ".") {
				return fmt.Errorf("attempt %d: suffix must start with '.', got %q", i+1, a.Variant.Suffix)
			}
		default:
			return fmt.Errorf("attempt %d: unknown kind %q", i+1, a.Variant.Kind)
		}
	}
	return nil
}

// planFile is the YAML layout: attribute key → plan
type planFile map[string]Plan

// LoadPlans reads per-attribute plans from a YAML file
func LoadPlans(path string) (map[string]Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	return ParsePlans(bytes.NewReader(data))
}

// ParsePlans decodes and validates plans; unknown fields are rejected
func ParsePlans(r io.Reader) (map[string]Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var pf planFile
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("decode plan yaml: %w", err)
	}
	for key, plan := range pf {
		if err := plan.Validate(); err != nil {
			return nil, fmt.Errorf("plan %q: %w", key, err)
		}
	}
	return pf, nil
}

// ListingDatePlan loads the listing-date plan from path, or the default when path is empty
func ListingDatePlan(path string) (Plan, error) {
	if path == "" {
		return DefaultListingDatePlan(), nil
	}
	plans, err := LoadPlans(path)
	if err != nil {
		return nil, err
	}
	plan, ok := plans[KeyListingDate]
	if !ok {
		return nil, fmt.Errorf("plan file %s has no %q plan", path, KeyListingDate)
	}
	return plan, nil
}
