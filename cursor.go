package livepager

import (
	"cmp"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

var _encoder = base64.RawURLEncoding

// PositionFunc extracts the position key of an item. Keys must be unique and
// follow the collection order.
type PositionFunc[T any, K cmp.Ordered] func(T) K

// PageRequest is intended for API payloads.
//
// A nil Limit means DefaultLimit. A nil Cursor means the start of the
// collection, a non-nil one the key of the last item already seen: the page
// resumes strictly after it.
type PageRequest[K cmp.Ordered] struct {
	Limit  *int `json:"limit,omitempty"`
	Cursor *K   `json:"cursor"`
}

// Page is a bounded slice of the collection.
type Page[T any, K cmp.Ordered] struct {
	// Items result elements, never more than the requested limit.
	Items []T `json:"items"`
	// NextCursor key of the last returned item when more items follow it,
	// nil when the page ends the collection.
	NextCursor *K `json:"nextCursor"`
}

// IsLast returns true if no further items existed when the page was built.
func (p *Page[T, K]) IsLast() bool {
	return p == nil || p.NextCursor == nil
}

// NextPageToken returns NextCursor encoded with EncodeCursor.
func (p *Page[T, K]) NextPageToken() string {
	if p == nil {
		return ""
	}

	return EncodeCursor(p.NextCursor)
}

// EncodeCursor renders a cursor as an opaque base64url token. A nil cursor
// produces an empty token.
func EncodeCursor[K cmp.Ordered](cursor *K) string {
	if cursor == nil {
		return ""
	}

	jTok, err := json.Marshal(*cursor)
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	return _encoder.EncodeToString(jTok)
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token
// decodes to a nil cursor.
func DecodeCursor[K cmp.Ordered](token string) (*K, error) {
	if len(token) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64 encoded cursor: %w", ErrInvalidArgument, err)
	}

	var key K
	if err = json.Unmarshal(jsonData, &key); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal json encoded cursor: %w", ErrInvalidArgument, err)
	}

	return &key, nil
}

// DecodePageRequest builds a PageRequest from raw transport values. A zero
// limit is treated as absent, any other value is validated later.
func DecodePageRequest[K cmp.Ordered](limit int, token string) (PageRequest[K], error) {
	cursor, err := DecodeCursor[K](token)
	if err != nil {
		return PageRequest[K]{}, err
	}

	req := PageRequest[K]{Cursor: cursor}
	if limit != 0 {
		req.Limit = &limit
	}

	return req, nil
}
