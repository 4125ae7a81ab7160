package textnorm

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var defaultDictionary []byte

// Dictionary is the curated data the normalizer applies.
type Dictionary struct {
	Symbols  map[string]string   `yaml:"symbols"`
	Fillers  []string            `yaml:"fillers"`
	Synonyms map[string][]string `yaml:"synonyms"`
}

// LoadDictionary decodes a YAML dictionary.
func LoadDictionary(r io.Reader) (*Dictionary, error) {
	var d Dictionary
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode dictionary: %w", err)
	}
	return &d, nil
}

// DefaultDictionary returns the embedded dictionary.
func DefaultDictionary() *Dictionary {
	d, err := LoadDictionary(strings.NewReader(string(defaultDictionary)))
	if err != nil {
		panic(fmt.Sprintf("textnorm: embedded dictionary is invalid: %v", err))
	}
	return d
}

// symbolPairs orders substitutions longest key first so ">=" wins over ">".
func (d *Dictionary) symbolPairs() []string {
	keys := make([]string, 0, len(d.Symbols))
	for k := range d.Symbols {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, d.Symbols[k])
	}
	return pairs
}
