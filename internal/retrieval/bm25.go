package retrieval

import "math"

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// BM25 is an Okapi BM25 scorer over a fixed corpus.
type BM25 struct {
	docs   []map[string]int
	lens   []int
	df     map[string]int
	avgLen float64
}

// NewBM25 tokenizes the corpus with Terms.
func NewBM25(corpus []string) *BM25 {
	m := &BM25{
		docs: make([]map[string]int, len(corpus)),
		lens: make([]int, len(corpus)),
		df:   make(map[string]int),
	}
	total := 0
	for i, text := range corpus {
		tf := make(map[string]int)
		terms := Terms(text)
		for _, t := range terms {
			tf[t]++
		}
		for t := range tf {
			m.df[t]++
		}
		m.docs[i] = tf
		m.lens[i] = len(terms)
		total += len(terms)
	}
	if len(corpus) > 0 {
		m.avgLen = float64(total) / float64(len(corpus))
	}
	return m
}

// Score returns one score per corpus document, in corpus order.
func (m *BM25) Score(query string) []float64 {
	scores := make([]float64, len(m.docs))
	if m.avgLen == 0 {
		return scores
	}
	n := float64(len(m.docs))
	seen := make(map[string]struct{})
	for _, term := range Terms(query) {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		df := float64(m.df[term])
		if df == 0 {
			continue
		}
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for i, tf := range m.docs {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			norm := bm25K1 * (1 - bm25B + bm25B*float64(m.lens[i])/m.avgLen)
			scores[i] += idf * f * (bm25K1 + 1) / (f + norm)
		}
	}
	return scores
}
