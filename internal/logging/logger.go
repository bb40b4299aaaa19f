// Package logging builds the logrus logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Format selects the logrus formatter.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures New.
type Options struct {
	Level  string
	Format Format
	// Output defaults to stderr so it never mixes with the tables on stdout.
	Output io.Writer
}

// Validate rejects unknown levels and formats.
func (o Options) Validate() error {
	if _, err := logrus.ParseLevel(levelOrDefault(o.Level)); err != nil {
		return fmt.Errorf("invalid log level %q", o.Level)
	}

	switch o.Format {
	case "", FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", o.Format)
	}
}

// New constructs a logger from opts.
func New(opts Options) (*logrus.Logger, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	level, _ := logrus.ParseLevel(levelOrDefault(opts.Level))

	logger := logrus.New()
	logger.SetLevel(level)

	if opts.Output != nil {
		logger.SetOutput(opts.Output)
	} else {
		logger.SetOutput(os.Stderr)
	}

	if opts.Format == FormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	}

	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}

func levelOrDefault(level string) string {
	if strings.TrimSpace(level) == "" {
		return "info"
	}

	return strings.ToLower(level)
}
