package livepager

import (
	"context"
	"iter"
)

// PollSeq adapts a function producing one lazy sequence per tick into a
// PollFunc. Every element is emitted in order; the first non-nil error ends
// the tick and fails the subscription.
func PollSeq[T any](fn func(ctx context.Context) iter.Seq2[T, error]) PollFunc[T] {
	return func(ctx context.Context, emit Emitter[T]) error {
		for item, err := range fn(ctx) {
			if err != nil {
				return err
			}

			emit.Next(item)
		}

		return nil
	}
}

// PollSlice emits every element returned by fn on each tick.
func PollSlice[T any](fn func(ctx context.Context) ([]T, error)) PollFunc[T] {
	return func(ctx context.Context, emit Emitter[T]) error {
		items, err := fn(ctx)
		if err != nil {
			return err
		}

		for _, item := range items {
			emit.Next(item)
		}

		return nil
	}
}
