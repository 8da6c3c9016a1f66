package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	cursor := JournalCursor{
		PostingDate: time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC),
		PostedAt:    time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC),
		EntryID:     "7f2c1a3e-9b1d-4d6e-8a51-2b7f0c9d1e11",
	}

	token := EncodeToken(cursor)
	assert.NotEmpty(t, token, "Token should not be empty")

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, cursor, decoded)

	// Current time survives the round trip at nanosecond precision.
	now := time.Now().UTC()
	decoded, err = DecodeToken(EncodeToken(JournalCursor{PostingDate: now, PostedAt: now, EntryID: "x"}))
	require.NoError(t, err)
	assert.True(t, now.Equal(decoded.PostedAt))
}

func TestDecodeTokenError(t *testing.T) {
	_, err := DecodeToken("this is not base64!")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	_, err = DecodeToken("MjAyMy0wNS0xNVQwMDowMDowMFo=") // "2023-05-15T00:00:00Z"
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	_, err = DecodeToken("bm90YWRhdGV8MjAyMy0wNS0xNVQxNDozMDo0NVp8aWQ=") // "notadate|2023-05-15T14:30:45Z|id"
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "posting date parse")
}

func TestCursorBefore(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	at := day.Add(9 * time.Hour)
	c := JournalCursor{PostingDate: day, PostedAt: at, EntryID: "m"}

	assert.True(t, c.Before(day.AddDate(0, 0, -1), at, "z"), "older posting date goes to next page")
	assert.False(t, c.Before(day.AddDate(0, 0, 1), at, "a"), "newer posting date was already returned")
	assert.True(t, c.Before(day, at.Add(-time.Second), "z"))
	assert.True(t, c.Before(day, at, "a"))
	assert.False(t, c.Before(day, at, "m"), "the cursor entry itself is excluded")
}
