package agent

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

//go:embed score_tables.yaml
var defaultScoreTables []byte

// ScoreTables holds reference cutoffs keyed by year and method.
type ScoreTables struct {
	years map[int]map[domain.ScoreMethod][]domain.MajorCutoff
}

// LoadScoreTables decodes tables from YAML.
func LoadScoreTables(r io.Reader) (*ScoreTables, error) {
	raw := make(map[int]map[string][]domain.MajorCutoff)
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode score tables: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("score tables are empty")
	}

	t := &ScoreTables{years: make(map[int]map[domain.ScoreMethod][]domain.MajorCutoff, len(raw))}
	for year, methods := range raw {
		t.years[year] = make(map[domain.ScoreMethod][]domain.MajorCutoff, len(methods))
		for name, rows := range methods {
			method, err := domain.ParseScoreMethod(name)
			if err != nil {
				return nil, fmt.Errorf("year %d: %q: %w", year, name, err)
			}
			t.years[year][method] = rows
		}
	}
	return t, nil
}

// DefaultScoreTables returns the embedded tables.
func DefaultScoreTables() *ScoreTables {
	t, err := LoadScoreTables(bytes.NewReader(defaultScoreTables))
	if err != nil {
		panic(err)
	}
	return t
}

// LoadScoreTablesFile reads tables from path, or the embedded tables
// when path is empty.
func LoadScoreTablesFile(path string) (*ScoreTables, error) {
	if path == "" {
		return DefaultScoreTables(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open score tables: %w", err)
	}
	defer f.Close()
	return LoadScoreTables(f)
}

// LatestYear returns the most recent year with data.
func (t *ScoreTables) LatestYear() int {
	latest := 0
	for y := range t.years {
		latest = max(latest, y)
	}
	return latest
}

// Years lists the available years in ascending order.
func (t *ScoreTables) Years() []int {
	out := make([]int, 0, len(t.years))
	for y := range t.years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// Table returns a copy of the rows for year and method.
func (t *ScoreTables) Table(year int, method domain.ScoreMethod) ([]domain.MajorCutoff, bool) {
	rows, ok := t.years[year][method]
	if !ok {
		return nil, false
	}
	out := make([]domain.MajorCutoff, len(rows))
	copy(out, rows)
	return out, true
}
