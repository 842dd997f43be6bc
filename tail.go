package livepager

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
)

type tailConfig struct {
	batch int
}

// TailOption configures Tail.
type TailOption func(*tailConfig)

// WithBatch sets the page size used to walk new items, DefaultLimit by
// default.
func WithBatch(batch int) TailOption {
	return func(c *tailConfig) {
		c.batch = batch
	}
}

// Tail returns a PollFunc that emits, on every tick, the items positioned
// strictly after the last item it emitted, starting after the key after
// (nil for the beginning of the collection). Each item is delivered once.
//
// The returned function keeps its cursor between ticks and must not be
// shared by several subscriptions, see TailStream.
func Tail[T any, K cmp.Ordered](
	collection Collection[T],
	position PositionFunc[T, K],
	after *K,
	opts ...TailOption,
) (PollFunc[T], error) {
	cfg := tailConfig{batch: DefaultLimit}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := ValidateLimit(&cfg.batch); err != nil {
		return nil, fmt.Errorf("cannot tail collection: %w", err)
	}

	if collection == nil || position == nil {
		return nil, invalidArgument("collection and position func are required")
	}

	var cursor *K
	if after != nil {
		cursor = lo.ToPtr(*after)
	}

	return func(ctx context.Context, emit Emitter[T]) error {
		items, err := collection.Read(ctx)
		if err != nil {
			return fmt.Errorf("cannot read collection: %w", err)
		}

		req := PageRequest[K]{Limit: &cfg.batch, Cursor: cursor}
		for {
			page, err := Resolve(items, position, req)
			if err != nil {
				return err
			}

			for _, item := range page.Items {
				emit.Next(item)
			}
			if len(page.Items) > 0 {
				cursor = lo.ToPtr(position(lo.LastOrEmpty(page.Items)))
			}

			if page.NextCursor == nil {
				return nil
			}
			req.Cursor = page.NextCursor
		}
	}, nil
}

// TailStream returns a stream where every subscription tails collection
// independently, starting after the key after.
func TailStream[T any, K cmp.Ordered](
	collection Collection[T],
	position PositionFunc[T, K],
	after *K,
	interval time.Duration,
	tailOpts []TailOption,
	opts ...StreamOption,
) (*Stream[T], error) {
	// Fail early on invalid options instead of at Subscribe.
	if _, err := Tail(collection, position, after, tailOpts...); err != nil {
		return nil, err
	}

	return NewStreamFactory(interval, func() PollFunc[T] {
		poll, _ := Tail(collection, position, after, tailOpts...)
		return poll
	}, opts...)
}
