package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, 7, Pagination{PageSize: 7}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 10_000}.Limit())
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	token, err := EncodeCursor(NewCursor("42", at))
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, "42", cursor.ID)

	got, err := cursor.Time()
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	cursor, err := DecodeCursor("")
	assert.NoError(t, err)
	assert.Nil(t, cursor)

	_, err = DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}

func TestBuildCursorPageInfo(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := []int{5, 4, 3}

	page, info := BuildCursorPageInfo(rows, 2, func(v int) Cursor {
		return NewCursor("id", at.Add(time.Duration(v)*time.Minute))
	})
	assert.Equal(t, []int{5, 4}, page)
	assert.True(t, info.HasMore)
	assert.NotEmpty(t, info.NextPageToken)

	page, info = BuildCursorPageInfo(rows, 3, func(v int) Cursor { return Cursor{} })
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
}
