package models

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
)

// Pagination selects a window of an ordered listing. Cursor is the opaque
// value returned as Page.NextCursor by the previous call; empty means the
// first page. Limit <= 0 means the configured default.
type Pagination struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Page is one window of versions in (created_at, id) order.
type Page struct {
	Items []FileVersion `json:"items"`
	// NextCursor is empty when there are no more items.
	NextCursor string `json:"nextCursor,omitempty"`
}

// Cursor is the decoded resume position: the last item already returned.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorAfter builds the cursor pointing just past v.
func CursorAfter(v FileVersion) Cursor {
	return Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
}

// Encode renders c as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by Cursor.Encode.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", common.ErrInvalidArgument)
	}

	nanos, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", common.ErrInvalidArgument)
	}

	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", common.ErrInvalidArgument)
	}

	return Cursor{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}
