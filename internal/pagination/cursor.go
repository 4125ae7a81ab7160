// Package pagination implements keyset cursors ordered by (timestamp, id).
//
// A cursor is the URL-safe base64 of "<unix nanos>.<id>", so it can be
// passed in a query string without escaping.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Cursor is the position after which the next page starts.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

// PageResult is one page of items plus the cursor of the next page.
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

var ErrInvalidCursor = errors.New("invalid cursor format")

// EncodeCursor returns "" for an empty id.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := strconv.FormatInt(timestamp.UTC().UnixNano(), 10) + "." + lastID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor. An empty string means the first page and
// yields a nil cursor.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	nanos, id, ok := strings.Cut(string(decoded), ".")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: id, Timestamp: time.Unix(0, n).UTC()}, nil
}

// NewPage trims a result fetched with limit+1 rows down to limit and
// derives the next cursor from the last kept item.
func NewPage[T any](items []T, limit int, key func(T) (string, time.Time)) PageResult[T] {
	hasMore := limit > 0 && len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	page := PageResult[T]{Items: items, HasMore: hasMore}
	if page.Items == nil {
		page.Items = []T{}
	}
	if hasMore && len(items) > 0 {
		id, ts := key(items[len(items)-1])
		page.Cursor = EncodeCursor(id, ts)
	}
	return page
}

// ClampLimit bounds a requested page size.
func ClampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
