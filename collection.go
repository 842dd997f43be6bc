package livepager

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"gorm.io/gorm"
)

// Collection provides read access to an ordered collection. Read returns the
// full current sequence ordered by position key. Callers never mutate the
// returned slice.
type Collection[T any] interface {
	Read(ctx context.Context) ([]T, error)
}

// CollectionFunc adapts a plain function to Collection.
type CollectionFunc[T any] func(ctx context.Context) ([]T, error)

func (f CollectionFunc[T]) Read(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// ResolveCollection reads collection and resolves the requested page from
// that read.
func ResolveCollection[T any, K cmp.Ordered](
	ctx context.Context,
	collection Collection[T],
	position PositionFunc[T, K],
	req PageRequest[K],
	opts ...ResolveOption,
) (*Page[T, K], error) {
	// Validate before hitting the collection.
	cfg := newResolveConfig(opts)
	if _, err := ValidateLimitMax(req.Limit, cfg.maxLimit); err != nil {
		return nil, fmt.Errorf("cannot resolve page: %w", err)
	}

	items, err := collection.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read collection: %w", err)
	}

	return Resolve(items, position, req, opts...)
}

// GORMCollection reads every row of a table ordered by its position column.
type GORMCollection[T any] struct {
	db     *gorm.DB
	column PositionColumn
}

// NewGORMCollection returns a Collection over db. db may be scoped with
// conditions, e.g. db.Where("deleted_at IS NULL").
func NewGORMCollection[T any](db *gorm.DB, column PositionColumn) (*GORMCollection[T], error) {
	if err := column.validate(); err != nil {
		return nil, invalidArgument("%s", err)
	}

	return &GORMCollection[T]{db: db, column: column}, nil
}

func (c *GORMCollection[T]) Read(ctx context.Context) ([]T, error) {
	rows := make([]T, 0)
	err := c.column.Apply(c.db.WithContext(ctx)).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("cannot read rows: %w", err)
	}

	return rows, nil
}

// MemoryCollection is an ordered in-memory collection safe for concurrent
// use. Keys are assigned by the caller and must grow with every Append.
type MemoryCollection[T any, K cmp.Ordered] struct {
	mu       sync.RWMutex
	items    []T
	position PositionFunc[T, K]
}

func NewMemoryCollection[T any, K cmp.Ordered](position PositionFunc[T, K], items ...T) *MemoryCollection[T, K] {
	c := &MemoryCollection[T, K]{position: position}
	c.items = append(c.items, items...)

	return c
}

// Append adds items at the end of the collection. It fails if an item's key
// does not exceed the current last key.
func (c *MemoryCollection[T, K]) Append(items ...T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range items {
		if n := len(c.items); n > 0 && cmp.Compare(c.position(item), c.position(c.items[n-1])) <= 0 {
			return invalidArgument("position %v does not follow %v", c.position(item), c.position(c.items[n-1]))
		}
		c.items = append(c.items, item)
	}

	return nil
}

// Delete removes every item for which match returns true and reports how
// many were removed.
func (c *MemoryCollection[T, K]) Delete(match func(T) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.items)
	c.items = slices.DeleteFunc(c.items, match)

	return before - len(c.items)
}

// Find returns the first item matching match, or ErrNotFound.
func (c *MemoryCollection[T, K]) Find(match func(T) bool) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := slices.IndexFunc(c.items, match)
	if idx == -1 {
		var empty T
		return empty, ErrNotFound
	}

	return c.items[idx], nil
}

// Len returns the number of items.
func (c *MemoryCollection[T, K]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Read returns a copy of the current items.
func (c *MemoryCollection[T, K]) Read(_ context.Context) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)

	return out, nil
}

var (
	_ Collection[int] = CollectionFunc[int](nil)
	_ Collection[int] = (*GORMCollection[int])(nil)
	_ Collection[int] = (*MemoryCollection[int, int])(nil)
)
