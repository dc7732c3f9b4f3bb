package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100

	cursorVersion = "v1"
)

// Params holds cursor pagination inputs from commands or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last item of the previous page.
type Cursor struct {
	ID string
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalization result plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor builds an opaque cursor string from the provided values.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursorVersion, cursor.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string back into its components. An empty
// value means the first page and yields nil.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	version, id, ok := strings.Cut(string(decoded), "|")
	if !ok || version != cursorVersion {
		return nil, fmt.Errorf("invalid cursor format")
	}
	if id == "" {
		return nil, fmt.Errorf("invalid cursor id")
	}
	return &Cursor{ID: id}, nil
}

// Page slices items after the cursor. keyOf returns the stable key stored in
// cursors. next is empty on the last page.
func Page[T any](items []T, params Params, keyOf func(T) string) (page []T, next string, err error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	start := 0
	if cursor != nil {
		start = -1
		for i, item := range items {
			if keyOf(item) == cursor.ID {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, "", fmt.Errorf("cursor %q does not match any item", cursor.ID)
		}
	}

	end := start + LimitWithBuffer(params.Limit)
	if end > len(items) {
		end = len(items)
	}
	page = items[start:end]
	if limit := NormalizeLimit(params.Limit); len(page) > limit {
		page = page[:limit]
		next = EncodeCursor(Cursor{ID: keyOf(page[len(page)-1])})
	}
	return page, next, nil
}
