package livepager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// MinInterval is the smallest poll interval accepted by NewStream.
const MinInterval = time.Millisecond

// Observer receives the events of one subscription. Next may be called any
// number of times, followed by at most one call to either Error or Complete.
// All calls happen on the subscription's goroutine, one at a time.
type Observer[T any] interface {
	Next(item T)
	Error(err error)
	Complete()
}

// ObserverFuncs implements Observer with optional callbacks.
type ObserverFuncs[T any] struct {
	OnNext     func(T)
	OnError    func(error)
	OnComplete func()
}

func (o ObserverFuncs[T]) Next(item T) {
	if o.OnNext != nil {
		o.OnNext(item)
	}
}

func (o ObserverFuncs[T]) Error(err error) {
	if o.OnError != nil {
		o.OnError(err)
	}
}

func (o ObserverFuncs[T]) Complete() {
	if o.OnComplete != nil {
		o.OnComplete()
	}
}

// Emitter is the sink handed to a PollFunc.
type Emitter[T any] interface {
	Next(item T)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc[T any] func(T)

func (f EmitterFunc[T]) Next(item T) {
	f(item)
}

// PollFunc is invoked once per tick. It may call emit.Next zero or more times
// and must do so before returning; emissions made after it returns are
// dropped. A returned error terminates the subscription, ErrEndOfStream
// completes it.
type PollFunc[T any] func(ctx context.Context, emit Emitter[T]) error

// Stream turns a PollFunc into a push stream. Each Subscribe starts an
// independent timer loop.
type Stream[T any] struct {
	interval time.Duration
	newPoll  func() PollFunc[T]
	cfg      streamConfig
}

// NewStream returns a Stream whose subscriptions all share poll.
func NewStream[T any](interval time.Duration, poll PollFunc[T], opts ...StreamOption) (*Stream[T], error) {
	if poll == nil {
		return nil, invalidArgument("poll func cannot be nil")
	}

	return NewStreamFactory(interval, func() PollFunc[T] { return poll }, opts...)
}

// NewStreamFactory returns a Stream calling newPoll once per Subscribe, for
// poll functions that keep per-subscriber state such as a ChangeGate.
func NewStreamFactory[T any](interval time.Duration, newPoll func() PollFunc[T], opts ...StreamOption) (*Stream[T], error) {
	if interval < MinInterval {
		return nil, invalidArgument("poll interval %s is below %s", interval, MinInterval)
	}

	if newPoll == nil {
		return nil, invalidArgument("poll factory cannot be nil")
	}

	cfg, err := newStreamConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Stream[T]{
		interval: interval,
		newPoll:  newPoll,
		cfg:      cfg,
	}, nil
}

// Interval returns the delay between the end of one tick and the start of
// the next.
func (s *Stream[T]) Interval() time.Duration {
	return s.interval
}

// Subscribe starts polling for observer. The first tick runs immediately;
// every following one starts Interval after the previous PollFunc call
// returned, so ticks never overlap.
//
// Cancelling ctx ends the subscription with Complete.
func (s *Stream[T]) Subscribe(ctx context.Context, observer Observer[T]) (*Subscription, error) {
	if observer == nil {
		return nil, invalidArgument("observer cannot be nil")
	}

	poll := s.newPoll()
	if poll == nil {
		return nil, invalidArgument("poll factory returned nil")
	}

	sub := &subscriber[T]{
		Subscription: &Subscription{
			stop: make(chan struct{}),
			done: make(chan struct{}),
		},
		interval: s.interval,
		poll:     poll,
		observer: observer,
		log:      s.cfg.logger.WithField("stream", s.cfg.name),
	}

	go sub.run(ctx)

	return sub.Subscription, nil
}

// Subscription is the handle of one running timer loop.
type Subscription struct {
	cancelled atomic.Bool
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}

	ticks atomic.Uint64
	err   error
}

// Cancel stops the subscription. It does not wait: a tick in flight runs to
// completion but its remaining emissions are dropped, no further tick starts
// and no terminal event is delivered. Cancel may be called from within
// observer callbacks and more than once.
func (s *Subscription) Cancel() {
	s.cancelled.Store(true)
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Close cancels the subscription and waits for its loop to exit.
func (s *Subscription) Close(ctx context.Context) error {
	s.Cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the loop has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the failure that terminated the subscription, nil on
// completion or cancellation. It is only meaningful after Done is closed.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Ticks returns the number of ticks started so far.
func (s *Subscription) Ticks() uint64 {
	return s.ticks.Load()
}

type subscriber[T any] struct {
	*Subscription

	interval time.Duration
	poll     PollFunc[T]
	observer Observer[T]
	log      logrus.FieldLogger
}

func (s *subscriber[T]) run(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(s.interval)
	timer.Stop()
	defer timer.Stop()

	s.log.Debug("subscription started")

	for tick := uint64(1); ; tick++ {
		if !s.await(ctx, timer, tick == 1) {
			return
		}

		s.ticks.Store(tick)
		err := s.tick(ctx, tick)
		if err == nil {
			continue
		}

		if errors.Is(err, ErrEndOfStream) {
			s.log.WithField("tick", tick).Debug("poll source exhausted")
			s.finish(nil)
		} else {
			s.log.WithFields(logrus.Fields{"tick": tick, "error": err}).Warn("poll failed, closing subscription")
			s.finish(err)
		}

		return
	}
}

// await blocks until the next tick is due. It returns false when the loop
// must exit instead.
func (s *subscriber[T]) await(ctx context.Context, timer *time.Timer, immediate bool) bool {
	if !immediate {
		timer.Reset(s.interval)

		select {
		case <-ctx.Done():
		case <-s.stop:
		case <-timer.C:
		}
	}

	switch {
	case s.cancelled.Load():
		s.log.Debug("subscription cancelled")
		return false
	case ctx.Err() != nil:
		s.log.Debug("subscription context done")
		s.finish(nil)
		return false
	default:
		return true
	}
}

func (s *subscriber[T]) tick(ctx context.Context, tick uint64) (err error) {
	var active atomic.Bool
	active.Store(true)
	defer active.Store(false)

	defer func() {
		if r := recover(); r != nil {
			err = &PollError{Tick: tick, Err: fmt.Errorf("panic: %v", r), Panic: r}
		}
	}()

	emit := EmitterFunc[T](func(item T) {
		if !active.Load() || s.cancelled.Load() {
			return
		}

		s.observer.Next(item)
	})

	err = s.poll(ctx, emit)
	switch {
	case err == nil, errors.Is(err, ErrEndOfStream):
		return err
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// The host is shutting down, not a poll failure.
		return fmt.Errorf("%w: %w", ErrEndOfStream, err)
	default:
		return &PollError{Tick: tick, Err: err}
	}
}

// finish delivers the terminal event unless the subscription was cancelled.
func (s *subscriber[T]) finish(err error) {
	if s.cancelled.Load() {
		return
	}

	s.err = err
	if err != nil {
		s.observer.Error(err)
		return
	}

	s.observer.Complete()
}
