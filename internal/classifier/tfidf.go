package classifier

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"
)

// LinearModel is a TF-IDF vectorizer followed by a linear decision
// function, in the JSON layout of an exported scikit-learn
// TfidfVectorizer plus LogisticRegression pipeline. Source is "seed" for
// the hand-weighted models built into the binary; a trained export
// replaces them through the model directory.
type LinearModel struct {
	Source      string         `json:"source"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Weights     []float64      `json:"weights"`
	Intercept   float64        `json:"intercept"`
	NgramRange  [2]int         `json:"ngram_range"`
	SublinearTF bool           `json:"sublinear_tf"`
}

// LoadLinearModel decodes and validates a model.
func LoadLinearModel(r io.Reader) (*LinearModel, error) {
	var m LinearModel
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *LinearModel) validate() error {
	n := len(m.Vocabulary)
	if n == 0 {
		return fmt.Errorf("model vocabulary is empty")
	}
	if len(m.IDF) != n || len(m.Weights) != n {
		return fmt.Errorf("model has %d terms but %d idf values and %d weights", n, len(m.IDF), len(m.Weights))
	}
	for term, idx := range m.Vocabulary {
		if idx < 0 || idx >= n {
			return fmt.Errorf("term %q has out-of-range index %d", term, idx)
		}
	}
	if m.NgramRange[0] <= 0 {
		m.NgramRange[0] = 1
	}
	if m.NgramRange[1] < m.NgramRange[0] {
		m.NgramRange[1] = m.NgramRange[0]
	}
	return nil
}

// Decision returns w·x + b for the L2-normalized TF-IDF vector of text.
func (m *LinearModel) Decision(text string) float64 {
	counts := make(map[int]float64)
	words := tokenize(text)
	for n := m.NgramRange[0]; n <= m.NgramRange[1]; n++ {
		for i := 0; i+n <= len(words); i++ {
			if idx, ok := m.Vocabulary[strings.Join(words[i:i+n], " ")]; ok {
				counts[idx]++
			}
		}
	}

	var norm float64
	for idx, tf := range counts {
		if m.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		v := tf * m.IDF[idx]
		counts[idx] = v
		norm += v * v
	}
	if norm == 0 {
		return m.Intercept
	}
	norm = math.Sqrt(norm)

	score := m.Intercept
	for idx, v := range counts {
		score += m.Weights[idx] * v / norm
	}
	return score
}

// IsSeed reports whether m is a hand-weighted seed model.
func (m *LinearModel) IsSeed() bool {
	return m.Source == "seed"
}

// Probability applies the logistic function to the decision value.
func (m *LinearModel) Probability(text string) float64 {
	return 1 / (1 + math.Exp(-m.Decision(text)))
}

// tokenize lower-cases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
