package classifier

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/cloo-solutions/admitbot/internal/textnorm"
)

// DefaultShortChatThreshold is the minimum fuzzy ratio for a match.
const DefaultShortChatThreshold = 0.85

type shortChatEntry struct {
	Patterns []string `yaml:"patterns"`
	Response string   `yaml:"response"`
}

type shortChatPattern struct {
	text     string
	response string
}

// ShortChatMatcher recognizes greetings, thanks and closings.
type ShortChatMatcher struct {
	patterns  []shortChatPattern
	threshold float64
}

// NewShortChatMatcher loads patterns from YAML and normalizes them with n
// so they compare against normalized queries.
func NewShortChatMatcher(r io.Reader, n *textnorm.Normalizer, threshold float64) (*ShortChatMatcher, error) {
	var entries []shortChatEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode short chat patterns: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultShortChatThreshold
	}

	m := &ShortChatMatcher{threshold: threshold}
	for _, e := range entries {
		for _, p := range e.Patterns {
			if norm := n.Normalize(p); norm != "" {
				m.patterns = append(m.patterns, shortChatPattern{text: norm, response: e.Response})
			}
		}
	}
	return m, nil
}

// Match returns the canned response of the closest pattern whose ratio
// reaches the threshold.
func (m *ShortChatMatcher) Match(text string) (string, bool) {
	best := 0.0
	response := ""
	for _, p := range m.patterns {
		if r := Ratio(text, p.text); r > best {
			best = r
			response = p.response
		}
	}
	if best >= m.threshold {
		return response, true
	}
	return "", false
}

// Ratio is 1 - edit distance / longer length, over runes.
func Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
