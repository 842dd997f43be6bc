package livepager

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned synchronously for caller errors: a limit
	// out of range, a malformed cursor token, an unusable interval.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when a lookup by identity yields no match.
	ErrNotFound = errors.New("not found")
	// ErrEndOfStream may be returned by a PollFunc to complete its stream
	// gracefully. The subscriber receives Complete instead of Error.
	ErrEndOfStream = errors.New("end of stream")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// PollError is delivered to Observer.Error when a poll callback fails.
type PollError struct {
	// Tick is the 1-based sequence number of the failed tick.
	Tick uint64
	// Err is the error returned by the callback. For a panic it wraps the
	// recovered value.
	Err error
	// Panic holds the recovered value when the callback panicked.
	Panic any
}

func (e *PollError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("poll tick %d panicked: %v", e.Tick, e.Panic)
	}

	return fmt.Sprintf("poll tick %d failed: %v", e.Tick, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// IsPollFailure reports whether err carries a *PollError.
func IsPollFailure(err error) bool {
	var pollErr *PollError
	return errors.As(err, &pollErr)
}
