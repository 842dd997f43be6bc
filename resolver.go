package livepager

import (
	"cmp"
	"fmt"

	"github.com/samber/lo"
)

type resolveConfig struct {
	direction Direction
	maxLimit  int
}

// ResolveOption configures Resolve.
type ResolveOption func(*resolveConfig)

// WithDirection sets the order of position keys in the collection. The
// default is DirectionASC. With DirectionDESC keys are non-increasing and
// a page resumes at keys strictly lower than the cursor.
func WithDirection(direction Direction) ResolveOption {
	return func(c *resolveConfig) {
		c.direction = direction
	}
}

// WithMaxLimit lowers the upper bound accepted for a limit. Values outside
// [MinLimit, MaxLimit] make Resolve fail with ErrInvalidArgument.
func WithMaxLimit(maxLimit int) ResolveOption {
	return func(c *resolveConfig) {
		c.maxLimit = maxLimit
	}
}

func newResolveConfig(opts []ResolveOption) resolveConfig {
	cfg := resolveConfig{
		direction: DirectionASC,
		maxLimit:  MaxLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// Resolve returns the page of items following req.Cursor.
//
// items must be ordered by position key. Items are filtered by comparing
// their key with the cursor rather than by locating the cursor's index, so
// a cursor whose item has since been deleted still resumes at the right
// place. The cursor is exclusive: an item whose key equals the cursor is
// never returned.
//
// NextCursor is the key of the last returned item when at least one more
// item follows it in items, nil otherwise.
func Resolve[T any, K cmp.Ordered](
	items []T,
	position PositionFunc[T, K],
	req PageRequest[K],
	opts ...ResolveOption,
) (*Page[T, K], error) {
	cfg := newResolveConfig(opts)
	if !cfg.direction.Valid() {
		return nil, invalidArgument("invalid ordering direction '%s'", cfg.direction)
	}

	limit, err := ValidateLimitMax(req.Limit, cfg.maxLimit)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve page: %w", err)
	}

	operator := cfg.direction.ForOperator()
	page := &Page[T, K]{
		Items: make([]T, 0, min(limit, len(items))),
	}

	lastIdx := -1
	for i, item := range items {
		if req.Cursor != nil && !After(operator, position(item), *req.Cursor) {
			continue
		}

		page.Items = append(page.Items, item)
		lastIdx = i
		if len(page.Items) >= limit {
			break
		}
	}

	if lastIdx != -1 && lastIdx+1 < len(items) {
		page.NextCursor = lo.ToPtr(position(items[lastIdx]))
	}

	return page, nil
}
