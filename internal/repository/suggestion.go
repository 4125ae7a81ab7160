package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/pagination"
)

// SuggestionRepository stores cached out-of-domain answers with their
// question embeddings.
type SuggestionRepository struct {
	db dbtx
}

func NewSuggestionRepository(pool *pgxpool.Pool) *SuggestionRepository {
	return &SuggestionRepository{db: pool}
}

func (r *SuggestionRepository) Create(ctx context.Context, s *domain.Suggestion) error {
	if s.Question == "" || len(s.Embedding) == 0 {
		return domain.ErrMissingRequiredField
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO suggestions (id, question, answer, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.Question, s.Answer, pgvector.NewVector(s.Embedding), s.CreatedAt,
	)
	return err
}

// FindNearest returns the most similar suggestion whose cosine similarity
// is at least minScore, or nil when none qualifies.
func (r *SuggestionRepository) FindNearest(ctx context.Context, embedding []float32, minScore float32) (*domain.Suggestion, error) {
	var s domain.Suggestion
	err := r.db.QueryRow(ctx,
		`SELECT id, question, answer, created_at, score FROM (
			 SELECT id, question, answer, created_at, (1.0 - (embedding <=> $1))::real AS score
			 FROM suggestions
			 ORDER BY embedding <=> $1
			 LIMIT 1
		 ) nearest
		 WHERE score >= $2`,
		pgvector.NewVector(embedding), minScore,
	).Scan(&s.ID, &s.Question, &s.Answer, &s.CreatedAt, &s.Score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// List pages through suggestions, newest first. Embeddings are not
// loaded.
func (r *SuggestionRepository) List(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Suggestion], error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, question, answer, created_at
			 FROM suggestions
			 WHERE (created_at, id) < ($1, $2)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, question, answer, created_at
			 FROM suggestions
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Suggestion
	for rows.Next() {
		var s domain.Suggestion
		if err := rows.Scan(&s.ID, &s.Question, &s.Answer, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := pagination.NewPage(items, limit, func(s *domain.Suggestion) (string, time.Time) {
		return s.ID, s.CreatedAt
	})
	return &page, nil
}
