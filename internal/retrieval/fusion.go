package retrieval

import (
	"sort"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

const (
	rrfK           = 60
	semanticWeight = 1.0
	lexicalWeight  = 0.85
)

type fusionCandidate struct {
	chunk domain.Chunk
	score float32
}

// FuseAlpha merges dense and sparse hits with relative score fusion:
// each list is min-max normalized, then combined as
// alpha*dense + (1-alpha)*sparse. A chunk missing from one list scores 0
// there.
func FuseAlpha(dense, sparse []domain.ScoredChunk, alpha float32, limit int) []domain.ScoredChunk {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	candidates := make(map[string]*fusionCandidate)
	add := func(list []domain.ScoredChunk, weight float32) {
		for i, norm := range normalizeScores(list) {
			c := list[i].Chunk
			cand, ok := candidates[c.ID]
			if !ok {
				cand = &fusionCandidate{chunk: c}
				candidates[c.ID] = cand
			}
			cand.score += weight * norm
		}
	}
	add(dense, alpha)
	add(sparse, 1-alpha)
	return rank(candidates, limit)
}

// FuseRRF merges the lists by weighted reciprocal rank.
func FuseRRF(dense, sparse []domain.ScoredChunk, limit int) []domain.ScoredChunk {
	candidates := make(map[string]*fusionCandidate)
	add := func(list []domain.ScoredChunk, weight float32) {
		for i, hit := range list {
			cand, ok := candidates[hit.Chunk.ID]
			if !ok {
				cand = &fusionCandidate{chunk: hit.Chunk}
				candidates[hit.Chunk.ID] = cand
			}
			cand.score += weight / float32(rrfK+i+1)
		}
	}
	add(dense, semanticWeight)
	add(sparse, lexicalWeight)
	return rank(candidates, limit)
}

func normalizeScores(list []domain.ScoredChunk) []float32 {
	out := make([]float32, len(list))
	if len(list) == 0 {
		return out
	}
	lo, hi := list[0].Score, list[0].Score
	for _, h := range list[1:] {
		lo = min(lo, h.Score)
		hi = max(hi, h.Score)
	}
	for i, h := range list {
		if hi == lo {
			out[i] = 1
			continue
		}
		out[i] = (h.Score - lo) / (hi - lo)
	}
	return out
}

func rank(candidates map[string]*fusionCandidate, limit int) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.ScoredChunk{Chunk: c.chunk, Score: c.score})
	}
	SortRanked(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortRanked orders hits by score descending, breaking ties by corpus
// order, and assigns 1-based ranks.
func SortRanked(hits []domain.ScoredChunk) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Chunk.Seq != b.Chunk.Seq {
			return a.Chunk.Seq < b.Chunk.Seq
		}
		return a.Chunk.ID < b.Chunk.ID
	})
	for i := range hits {
		hits[i].Rank = i + 1
	}
}
