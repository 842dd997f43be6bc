package livepager

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is the full content of a collection together with its
// fingerprint. Clients send Cursor back to resume without receiving the same
// snapshot twice.
type Snapshot[T any] struct {
	Data   []T    `json:"data"`
	Cursor string `json:"cursor"`
}

// Fingerprinter computes a change fingerprint of the whole collection. Equal
// content must yield equal fingerprints.
type Fingerprinter[T any] func(items []T) (string, error)

// HashFingerprint hashes the JSON encoding of items with xxhash. Nil and
// empty collections share a fingerprint.
func HashFingerprint[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("cannot encode collection: %w", err)
	}

	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}

// ChangeGate emits a Snapshot only when the collection fingerprint differs
// from the last one it emitted. A gate serves a single subscription.
type ChangeGate[T any] struct {
	collection  Collection[T]
	fingerprint Fingerprinter[T]

	mu   sync.Mutex
	last *string
}

// GateOption configures a ChangeGate.
type GateOption[T any] func(*ChangeGate[T])

// WithFingerprinter replaces HashFingerprint.
func WithFingerprinter[T any](fingerprint Fingerprinter[T]) GateOption[T] {
	return func(g *ChangeGate[T]) {
		if fingerprint != nil {
			g.fingerprint = fingerprint
		}
	}
}

// NewChangeGate returns a gate over collection. initial is the fingerprint
// the subscriber already knows, nil if none.
func NewChangeGate[T any](collection Collection[T], initial *string, opts ...GateOption[T]) *ChangeGate[T] {
	g := &ChangeGate[T]{
		collection:  collection,
		fingerprint: HashFingerprint[T],
	}
	if initial != nil {
		last := *initial
		g.last = &last
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// LastCursor returns the last known fingerprint.
func (g *ChangeGate[T]) LastCursor() *string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.last == nil {
		return nil
	}
	last := *g.last

	return &last
}

// Poll implements PollFunc.
func (g *ChangeGate[T]) Poll(ctx context.Context, emit Emitter[Snapshot[T]]) error {
	items, err := g.collection.Read(ctx)
	if err != nil {
		return fmt.Errorf("cannot read collection: %w", err)
	}

	fingerprint, err := g.fingerprint(items)
	if err != nil {
		return fmt.Errorf("cannot fingerprint collection: %w", err)
	}

	if !g.adopt(fingerprint) {
		return nil
	}

	if items == nil {
		items = make([]T, 0)
	}
	emit.Next(Snapshot[T]{Data: items, Cursor: fingerprint})

	return nil
}

// adopt stores fingerprint and reports whether it changed.
func (g *ChangeGate[T]) adopt(fingerprint string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.last != nil && *g.last == fingerprint {
		return false
	}
	g.last = &fingerprint

	return true
}

// LiveQuery returns a stream notifying on collection change. Every
// subscription gets its own ChangeGate starting at cursor, configured with
// gateOpts.
func LiveQuery[T any](
	collection Collection[T],
	cursor *string,
	interval time.Duration,
	gateOpts []GateOption[T],
	opts ...StreamOption,
) (*Stream[Snapshot[T]], error) {
	if collection == nil {
		return nil, invalidArgument("collection cannot be nil")
	}

	return NewStreamFactory(interval, func() PollFunc[Snapshot[T]] {
		return NewChangeGate(collection, cursor, gateOpts...).Poll
	}, opts...)
}
