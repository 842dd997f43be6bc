package config

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Alp4ka/livepager"
)

// NewLogger returns a logrus logger writing to out, stderr when out is nil.
func NewLogger(c *Logger, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid logger.level: %w", livepager.ErrInvalidArgument, err)
	}

	l := logrus.New()
	l.SetLevel(level)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{})
	default:
		return nil, fmt.Errorf("%w: unknown logger.format '%s'", livepager.ErrInvalidArgument, c.Format)
	}

	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	return l, nil
}
