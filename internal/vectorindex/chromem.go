package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/philippgille/chromem-go"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
)

const (
	chromemParentKey = "parent_id"
	chromemChunkKey  = "chunk"
)

var errPrecomputedEmbeddings = errors.New("chromem: embeddings must be precomputed")

// ChromemIndex is an embedded index for single-node deployments and
// tests. Dense search is done by chromem; the keyword half is BM25 over
// the whole collection, fused by alpha.
type ChromemIndex struct {
	db  *chromem.DB
	col *chromem.Collection
}

var _ retrieval.VectorIndex = (*ChromemIndex)(nil)

// NewChromemIndex opens the collection, persisted under path when path
// is non-empty and in memory otherwise.
func NewChromemIndex(path, collection string) (*ChromemIndex, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem db: %w", err)
		}
	}
	col, err := db.GetOrCreateCollection(collection, nil, func(context.Context, string) ([]float32, error) {
		return nil, errPrecomputedEmbeddings
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", collection, err)
	}
	return &ChromemIndex{db: db, col: col}, nil
}

func (x *ChromemIndex) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s: %w", c.ID, errPrecomputedEmbeddings)
		}
		rec, err := encodeRecord(c)
		if err != nil {
			return fmt.Errorf("failed to encode chunk %s: %w", c.ID, err)
		}
		docs = append(docs, chromem.Document{
			ID:        c.ID,
			Content:   c.Text,
			Embedding: c.Embedding,
			Metadata: map[string]string{
				chromemParentKey: c.ParentID(),
				chromemChunkKey:  rec,
			},
		})
	}
	if err := x.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (x *ChromemIndex) DeleteByParent(ctx context.Context, parentID string) error {
	if parentID == "" {
		return domain.ErrMissingRequiredField
	}
	if err := x.col.Delete(ctx, map[string]string{chromemParentKey: parentID}, nil); err != nil {
		return fmt.Errorf("failed to delete parent %s: %w", parentID, err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (x *ChromemIndex) Count() int {
	return x.col.Count()
}

func (x *ChromemIndex) Search(ctx context.Context, req retrieval.SearchRequest) ([]domain.ScoredChunk, error) {
	n := x.col.Count()
	if n == 0 || req.Limit <= 0 {
		return nil, nil
	}
	// chromem has no keyword index, so the whole collection is scored
	// densely and then re-scored with BM25.
	results, err := x.col.QueryEmbedding(ctx, req.Embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	all := make([]domain.ScoredChunk, 0, len(results))
	corpus := make([]string, 0, len(results))
	for _, r := range results {
		c, err := decodeRecord(r.Metadata[chromemChunkKey])
		if err != nil {
			return nil, fmt.Errorf("failed to decode chunk %s: %w", r.ID, err)
		}
		all = append(all, domain.ScoredChunk{Chunk: c, Score: r.Similarity})
		corpus = append(corpus, r.Content)
	}

	dense := all
	if len(dense) > req.Limit {
		dense = dense[:req.Limit]
	}

	var sparse []domain.ScoredChunk
	for i, s := range retrieval.NewBM25(corpus).Score(req.Query) {
		if s > 0 {
			sparse = append(sparse, domain.ScoredChunk{Chunk: all[i].Chunk, Score: float32(s)})
		}
	}
	sort.SliceStable(sparse, func(i, j int) bool { return sparse[i].Score > sparse[j].Score })
	if len(sparse) > req.Limit {
		sparse = sparse[:req.Limit]
	}

	return retrieval.FuseAlpha(dense, sparse, req.Alpha, req.Limit), nil
}
