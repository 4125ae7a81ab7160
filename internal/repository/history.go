package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/pagination"
)

// HistoryRepository persists conversation turns.
type HistoryRepository struct {
	db dbtx
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: pool}
}

func NewHistoryRepositoryWithTx(tx pgx.Tx) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

const turnColumns = `id, room_id, query, answer, retrieved_chunks, is_out_of_domain, route, created_at`

func (r *HistoryRepository) AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	if err := turn.Validate(); err != nil {
		return err
	}
	texts := turn.RetrievedChunkTexts
	if texts == nil {
		texts = []string{}
	}
	chunks, err := json.Marshal(texts)
	if err != nil {
		return fmt.Errorf("failed to encode retrieved chunks: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO conversation_turns (`+turnColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		turn.ID, turn.RoomID, turn.Query, turn.Answer, chunks, turn.IsOutOfDomain, turn.Route, turn.CreatedAt,
	)
	return err
}

// GetLastTurns returns at most limit turns of the room, oldest first.
func (r *HistoryRepository) GetLastTurns(ctx context.Context, roomID string, limit int) ([]*domain.ConversationTurn, error) {
	if roomID == "" {
		return nil, domain.ErrMissingRoomID
	}
	if limit <= 0 {
		return []*domain.ConversationTurn{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+turnColumns+` FROM (
			 SELECT `+turnColumns+`
			 FROM conversation_turns
			 WHERE room_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2
		 ) recent
		 ORDER BY created_at ASC, id ASC`,
		roomID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTurnRows(rows)
}

// ListByRoom pages through a room's turns, newest first.
func (r *HistoryRepository) ListByRoom(ctx context.Context, roomID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.ConversationTurn], error) {
	if roomID == "" {
		return nil, domain.ErrMissingRoomID
	}
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+turnColumns+`
			 FROM conversation_turns
			 WHERE room_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			roomID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+turnColumns+`
			 FROM conversation_turns
			 WHERE room_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			roomID, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanTurnRows(rows)
	if err != nil {
		return nil, err
	}
	page := pagination.NewPage(items, limit, func(t *domain.ConversationTurn) (string, time.Time) {
		return t.ID, t.CreatedAt
	})
	return &page, nil
}

// DeleteRoom removes every turn of the room.
func (r *HistoryRepository) DeleteRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return domain.ErrMissingRoomID
	}
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM conversation_turns WHERE room_id = $1`, roomID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func scanTurnRows(rows pgx.Rows) ([]*domain.ConversationTurn, error) {
	var turns []*domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		var chunks []byte
		var route string
		if err := rows.Scan(&t.ID, &t.RoomID, &t.Query, &t.Answer, &chunks, &t.IsOutOfDomain, &route, &t.CreatedAt); err != nil {
			return nil, err
		}
		if len(chunks) > 0 {
			if err := json.Unmarshal(chunks, &t.RetrievedChunkTexts); err != nil {
				return nil, fmt.Errorf("failed to decode retrieved chunks of turn %s: %w", t.ID, err)
			}
		}
		t.Route = domain.Route(route)
		turns = append(turns, &t)
	}
	return turns, rows.Err()
}
