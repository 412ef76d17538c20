package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Params is the limit and opaque cursor a list endpoint receives.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the (created_at, id) keyset of the last row on a page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor renders a cursor safe to place in a query string.
func EncodeCursor(cursor Cursor) string {
	payload := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor produced by EncodeCursor. An empty value yields nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	stamp, id, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: parsedID}, nil
}

// Keyset is a decoded page request ready to scope a GORM query.
type Keyset struct {
	Limit  int
	Cursor *Cursor
}

// NewKeyset normalizes the limit and decodes the cursor.
func NewKeyset(params Params) (Keyset, error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return Keyset{}, err
	}
	return Keyset{Limit: NormalizeLimit(params.Limit), Cursor: cursor}, nil
}

// Scope orders newest first, skips rows up to the cursor and fetches one extra row so
// Trim can tell whether another page exists.
func (k Keyset) Scope(query *gorm.DB) *gorm.DB {
	if k.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", k.Cursor.CreatedAt, k.Cursor.CreatedAt, k.Cursor.ID)
	}
	return query.Order("created_at DESC").Order("id DESC").Limit(k.Limit + 1)
}

// Trim cuts rows to the page size and returns the cursor of the next page, if any.
func Trim[T any](k Keyset, rows []T, key func(T) Cursor) ([]T, string) {
	if len(rows) <= k.Limit {
		return rows, ""
	}
	rows = rows[:k.Limit]
	return rows, EncodeCursor(key(rows[k.Limit-1]))
}
