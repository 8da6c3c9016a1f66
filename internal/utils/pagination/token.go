package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// JournalCursor is the position after the last entry of a page, in (posting date, posted at, id) order.
type JournalCursor struct {
	PostingDate time.Time
	PostedAt    time.Time
	EntryID     string
}

// EncodeToken creates an opaque token from a journal cursor.
func EncodeToken(c JournalCursor) string {
	tokenStr := strings.Join([]string{
		c.PostingDate.Format(timeFormat),
		c.PostedAt.Format(timeFormat),
		c.EntryID,
	}, "|")
	return base64.URLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses a token produced by EncodeToken.
func DecodeToken(token string) (JournalCursor, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return JournalCursor{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 3)
	if len(parts) != 3 || parts[2] == "" {
		return JournalCursor{}, fmt.Errorf("invalid pagination token format (split)")
	}

	postingDate, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return JournalCursor{}, fmt.Errorf("invalid pagination token format (posting date parse): %w", err)
	}
	postedAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return JournalCursor{}, fmt.Errorf("invalid pagination token format (posted_at parse): %w", err)
	}

	return JournalCursor{PostingDate: postingDate, PostedAt: postedAt, EntryID: parts[2]}, nil
}

// Before reports whether an entry at (postingDate, postedAt, id) sorts after the cursor
// in newest-first order, i.e. belongs on a later page.
func (c JournalCursor) Before(postingDate, postedAt time.Time, id string) bool {
	if !postingDate.Equal(c.PostingDate) {
		return postingDate.Before(c.PostingDate)
	}
	if !postedAt.Equal(c.PostedAt) {
		return postedAt.Before(c.PostedAt)
	}
	return id < c.EntryID
}
