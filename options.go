package livepager

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

type streamConfig struct {
	logger logrus.FieldLogger
	name   string
}

// StreamOption configures a Stream.
type StreamOption func(*streamConfig) error

// WithLogger sets the logger used by subscriptions. By default nothing is
// logged.
func WithLogger(logger logrus.FieldLogger) StreamOption {
	return func(c *streamConfig) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}

		c.logger = logger

		return nil
	}
}

// WithName sets the value of the "stream" log field.
func WithName(name string) StreamOption {
	return func(c *streamConfig) error {
		if name == "" {
			return fmt.Errorf("stream name cannot be empty")
		}

		c.name = name

		return nil
	}
}

func newStreamConfig(opts []StreamOption) (streamConfig, error) {
	cfg := streamConfig{
		logger: discardLogger(),
		name:   "poll",
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return streamConfig{}, fmt.Errorf("%w: failed to apply stream option %d: %w", ErrInvalidArgument, i, err)
		}
	}

	return cfg, nil
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}
