package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTripIsURLSafe(t *testing.T) {
	cursor := Cursor{CreatedAt: time.Date(2026, 10, 19, 9, 15, 0, 123, time.UTC), ID: uuid.New()}
	encoded := EncodeCursor(cursor)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "=")

	decoded, err := ParseCursor(encoded)
	require.NoError(t, err)
	assert.True(t, decoded.CreatedAt.Equal(cursor.CreatedAt))
	assert.Equal(t, cursor.ID, decoded.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	_, err := ParseCursor("%%%")
	assert.Error(t, err)

	c, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNewKeysetNormalizesLimit(t *testing.T) {
	k, err := NewKeyset(Params{Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, k.Limit)

	k, err = NewKeyset(Params{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, k.Limit)
}

func TestTrim(t *testing.T) {
	base := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	rows := []Cursor{
		{CreatedAt: base.Add(3 * time.Minute), ID: uuid.New()},
		{CreatedAt: base.Add(2 * time.Minute), ID: uuid.New()},
		{CreatedAt: base.Add(time.Minute), ID: uuid.New()},
	}
	key := func(c Cursor) Cursor { return c }

	page, next := Trim(Keyset{Limit: 2}, rows, key)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)
	decoded, err := ParseCursor(next)
	require.NoError(t, err)
	assert.Equal(t, rows[1].ID, decoded.ID)

	page, next = Trim(Keyset{Limit: 3}, rows, key)
	assert.Len(t, page, 3)
	assert.Empty(t, next)
}
