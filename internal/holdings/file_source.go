package holdings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/etfscope/internal/contracts"
)

// fileDoc is one disclosure snapshot on disk
type fileDoc struct {
	ETF      string        `yaml:"etf"`
	AsOf     string        `yaml:"as_of"`
	Scale    Scale         `yaml:"scale"`
	Holdings []fileHolding `yaml:"holdings"`
}

type fileHolding struct {
	Symbol string   `yaml:"symbol"`
	Name   string   `yaml:"name"`
	Weight float64  `yaml:"weight"`
	Amount *float64 `yaml:"amount"`
}

// Snapshot is a parsed holdings file
type Snapshot struct {
	ETF      string
	AsOf     time.Time
	Holdings contracts.HoldingsTable
}

// ParseSnapshot decodes one YAML holdings document and normalizes its weights
func ParseSnapshot(r io.Reader) (Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc fileDoc
	if err := dec.Decode(&doc); err != nil {
		return Snapshot{}, fmt.Errorf("decode holdings yaml: %w", err)
	}

	snap := Snapshot{ETF: doc.ETF}
	if doc.AsOf != "" {
		asOf, err := contracts.ParseDate(doc.AsOf)
		if err != nil {
			return Snapshot{}, fmt.Errorf("as_of: %w", err)
		}
		snap.AsOf = asOf
	}

	raw := make(contracts.HoldingsTable, 0, len(doc.Holdings))
	for _, h := range doc.Holdings {
		raw = append(raw, contracts.Holding{
			Symbol:    h.Symbol,
			Name:      h.Name,
			WeightPct: h.Weight,
			Amount:    h.Amount,
		})
	}

	table, err := Normalize(raw, doc.Scale)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Holdings = table
	return snap, nil
}

// FileSource serves holdings from YAML files laid out as <dir>/<etf>/<YYYY-MM-DD>.yaml.
// For a requested date it returns the latest snapshot on or before that date.
// Used for foreign ETFs whose disclosures are not on the KRX portal.
type FileSource struct {
	dir string
}

// NewFileSource creates a file-backed holdings source rooted at dir
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// FetchHoldings implements contracts.HoldingsSource; no snapshot yields an empty table
func (s *FileSource) FetchHoldings(ctx context.Context, identifier string, asOf time.Time) (contracts.HoldingsTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.snapshotPath(identifier, contracts.DateOf(asOf))
	if err != nil {
		return nil, err
	}
	if path == "" {
		return contracts.HoldingsTable{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holdings file: %w", err)
	}
	snap, err := ParseSnapshot(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap.Holdings, nil
}

func (s *FileSource) snapshotPath(identifier string, asOf time.Time) (string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, identifier))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("list holdings dir: %w", err)
	}

	dates := make([]time.Time, 0, len(entries))
	names := make(map[time.Time]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		d, err := time.Parse(contracts.DateLayout, e.Name()[:len(e.Name())-len(".yaml")])
		if err != nil {
			continue
		}
		dates = append(dates, d)
		names[d] = e.Name()
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	// asOf 이하 중 가장 최근
	idx := sort.Search(len(dates), func(i int) bool { return dates[i].After(asOf) }) - 1
	if idx < 0 {
		return "", nil
	}
	return filepath.Join(s.dir, identifier, names[dates[idx]]), nil
}
