package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// ChunkDocumentRepository is the Postgres document store: chunk text and
// metadata keyed by chunk id.
type ChunkDocumentRepository struct {
	db dbtx
}

func NewChunkDocumentRepository(pool *pgxpool.Pool) *ChunkDocumentRepository {
	return &ChunkDocumentRepository{db: pool}
}

func NewChunkDocumentRepositoryWithTx(tx pgx.Tx) *ChunkDocumentRepository {
	return &ChunkDocumentRepository{db: tx}
}

const chunkDocumentColumns = `id, parent_id, public_id, text, title, seq, metadata, previous_id, next_id, excluded_embed_keys, excluded_prompt_keys`

// Insert writes all chunks in one transaction.
func (r *ChunkDocumentRepository) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range chunks {
		meta, err := json.Marshal(nonNilMap(c.Metadata))
		if err != nil {
			return fmt.Errorf("failed to encode metadata of chunk %s: %w", c.ID, err)
		}
		batch.Queue(
			`INSERT INTO chunk_documents (`+chunkDocumentColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.ID, c.ParentID(), c.PublicID(), c.Text, c.Title, c.Seq, meta,
			nullableString(c.Relationships.Previous), nullableString(c.Relationships.Next),
			nonNilSlice(c.ExcludedEmbedKeys), nonNilSlice(c.ExcludedPromptKeys),
		)
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *ChunkDocumentRepository) DeleteByParent(ctx context.Context, parentID string) error {
	if parentID == "" {
		return domain.ErrMissingRequiredField
	}
	_, err := r.db.Exec(ctx, `DELETE FROM chunk_documents WHERE parent_id = $1`, parentID)
	return err
}

func (r *ChunkDocumentRepository) FindByPublicID(ctx context.Context, publicID string) ([]*domain.Chunk, error) {
	if publicID == "" {
		return nil, domain.ErrMissingPublicID
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+chunkDocumentColumns+`
		 FROM chunk_documents
		 WHERE public_id = $1
		 ORDER BY seq ASC`,
		publicID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := []*domain.Chunk{}
	for rows.Next() {
		c, err := scanChunkDocument(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *ChunkDocumentRepository) Get(ctx context.Context, id string) (*domain.Chunk, error) {
	c, err := scanChunkDocument(r.db.QueryRow(ctx,
		`SELECT `+chunkDocumentColumns+` FROM chunk_documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanChunkDocument(row pgx.Row) (*domain.Chunk, error) {
	var c domain.Chunk
	var parentID, publicID string
	var meta []byte
	var prev, next pgtype.Text
	if err := row.Scan(&c.ID, &parentID, &publicID, &c.Text, &c.Title, &c.Seq, &meta,
		&prev, &next, &c.ExcludedEmbedKeys, &c.ExcludedPromptKeys); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of chunk %s: %w", c.ID, err)
		}
	}
	c.Relationships = domain.Relationships{Source: parentID, Previous: prev.String, Next: next.String}
	return &c, nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
