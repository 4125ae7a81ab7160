package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
	"github.com/cloo-solutions/admitbot/internal/vectorindex"
)

// Fusion strategies for combining the dense and keyword result lists.
const (
	FusionAlpha = "alpha"
	FusionRRF   = "rrf"
)

// ChunkIndexRepository is the pgvector-backed vector side of the dual
// store. Dense search uses cosine distance; keyword search uses the
// 'simple' text search configuration over diacritic-folded terms.
type ChunkIndexRepository struct {
	db     dbtx
	fusion string
}

var _ retrieval.VectorIndex = (*ChunkIndexRepository)(nil)

func NewChunkIndexRepository(pool *pgxpool.Pool, fusion string) *ChunkIndexRepository {
	if fusion != FusionRRF {
		fusion = FusionAlpha
	}
	return &ChunkIndexRepository{db: pool, fusion: fusion}
}

func (r *ChunkIndexRepository) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		record, err := vectorindex.MarshalChunk(c)
		if err != nil {
			return fmt.Errorf("failed to encode chunk %s: %w", c.ID, err)
		}
		batch.Queue(
			`INSERT INTO chunk_embeddings (id, parent_id, seq, record, keywords, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET
			     parent_id = EXCLUDED.parent_id,
			     seq = EXCLUDED.seq,
			     record = EXCLUDED.record,
			     keywords = EXCLUDED.keywords,
			     embedding = EXCLUDED.embedding`,
			c.ID, c.ParentID(), c.Seq, record,
			retrieval.KeywordQuery(c.Title+" "+c.Text), pgvector.NewVector(c.Embedding),
		)
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *ChunkIndexRepository) DeleteByParent(ctx context.Context, parentID string) error {
	if parentID == "" {
		return domain.ErrMissingRequiredField
	}
	_, err := r.db.Exec(ctx, `DELETE FROM chunk_embeddings WHERE parent_id = $1`, parentID)
	return err
}

func (r *ChunkIndexRepository) Search(ctx context.Context, req retrieval.SearchRequest) ([]domain.ScoredChunk, error) {
	if req.Limit <= 0 {
		return nil, nil
	}

	dense, err := r.queryScored(ctx,
		`SELECT record, (1.0 / (1.0 + (embedding <=> $1)))::real AS score
		 FROM chunk_embeddings
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(req.Embedding), req.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}

	var sparse []domain.ScoredChunk
	if q := tsQuery(req.Query); q != "" {
		sparse, err = r.queryScored(ctx,
			`SELECT record, ts_rank(keywords_tsv, q)::real AS score
			 FROM chunk_embeddings, to_tsquery('simple', $1) q
			 WHERE keywords_tsv @@ q
			 ORDER BY score DESC, seq ASC
			 LIMIT $2`,
			q, req.Limit,
		)
		if err != nil {
			return nil, fmt.Errorf("keyword search: %w", err)
		}
	}

	if r.fusion == FusionRRF {
		return retrieval.FuseRRF(dense, sparse, req.Limit), nil
	}
	return retrieval.FuseAlpha(dense, sparse, req.Alpha, req.Limit), nil
}

func (r *ChunkIndexRepository) queryScored(ctx context.Context, sql string, args ...any) ([]domain.ScoredChunk, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ScoredChunk
	for rows.Next() {
		var record []byte
		var score float32
		if err := rows.Scan(&record, &score); err != nil {
			return nil, err
		}
		c, err := vectorindex.UnmarshalChunk(record)
		if err != nil {
			return nil, fmt.Errorf("failed to decode chunk record: %w", err)
		}
		out = append(out, domain.ScoredChunk{Chunk: c, Score: score})
	}
	return out, rows.Err()
}

// tsQuery ORs the folded query terms. Terms are letters and digits only,
// so they need no quoting.
func tsQuery(query string) string {
	return strings.Join(retrieval.Terms(query), " | ")
}
