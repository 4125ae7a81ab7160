package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/pagination"
)

// FileRepository persists one record per ingested file.
type FileRepository struct {
	db dbtx
}

func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: pool}
}

func NewFileRepositoryWithTx(tx pgx.Tx) *FileRepository {
	return &FileRepository{db: tx}
}

const fileColumns = `public_id, url, file_name, file_type, object_key, document_id, chunk_count, created_at`

// Upsert inserts the record or replaces the one with the same public id.
func (r *FileRepository) Upsert(ctx context.Context, rec *domain.FileRecord) error {
	if rec.PublicID == "" {
		return domain.ErrMissingPublicID
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO file_records (`+fileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (public_id) DO UPDATE SET
		     url = EXCLUDED.url,
		     file_name = EXCLUDED.file_name,
		     file_type = EXCLUDED.file_type,
		     object_key = EXCLUDED.object_key,
		     document_id = EXCLUDED.document_id,
		     chunk_count = EXCLUDED.chunk_count,
		     created_at = EXCLUDED.created_at`,
		rec.PublicID, rec.URL, rec.FileName, rec.FileType, nullableString(rec.ObjectKey),
		rec.DocumentID, rec.ChunkCount, rec.CreatedAt,
	)
	return err
}

func (r *FileRepository) GetByPublicID(ctx context.Context, publicID string) (*domain.FileRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT `+fileColumns+` FROM file_records WHERE public_id = $1`, publicID)
	rec, err := scanFileRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *FileRepository) Delete(ctx context.Context, publicID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM file_records WHERE public_id = $1`, publicID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrFileNotFound
	}
	return nil
}

// List pages through file records, newest first.
func (r *FileRepository) List(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.FileRecord], error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+fileColumns+`
			 FROM file_records
			 WHERE (created_at, public_id) < ($1, $2)
			 ORDER BY created_at DESC, public_id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+fileColumns+`
			 FROM file_records
			 ORDER BY created_at DESC, public_id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.FileRecord
	for rows.Next() {
		rec, err := scanFileRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := pagination.NewPage(items, limit, func(f *domain.FileRecord) (string, time.Time) {
		return f.PublicID, f.CreatedAt
	})
	return &page, nil
}

func scanFileRecord(row pgx.Row) (*domain.FileRecord, error) {
	var rec domain.FileRecord
	var fileType string
	var objectKey pgtype.Text
	if err := row.Scan(&rec.PublicID, &rec.URL, &rec.FileName, &fileType, &objectKey,
		&rec.DocumentID, &rec.ChunkCount, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.FileType = domain.FileType(fileType)
	if objectKey.Valid {
		rec.ObjectKey = objectKey.String
	}
	return &rec, nil
}
