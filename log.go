package postboard

import (
	"io"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/pkg/errors"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type LogConfig struct {
	// Enabled turns on info logs. Debug and Trace imply Enabled.
	Enabled bool
	Debug   bool
	Trace   bool

	// Format is either LogFormatText (default) or LogFormatJSON.
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

func (c *LogConfig) setDefaults() {
	if c.Format == "" {
		c.Format = LogFormatText
	}
	if c.Output == nil {
		c.Output = os.Stderr
	}
}

func (c LogConfig) Validate() error {
	if c.Format != LogFormatText && c.Format != LogFormatJSON {
		return errors.Errorf("unknown log format %q", c.Format)
	}

	return nil
}

func (c LogConfig) enabled() bool {
	return c.Enabled || c.Debug || c.Trace
}

func (c LogConfig) level() slog.Level {
	switch {
	case c.Trace:
		return watermill.LevelTrace
	case c.Debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates the logger used by postboard's own components.
// When logging is not enabled, watermill.NopLogger is returned.
func NewLogger(config LogConfig) (watermill.LoggerAdapter, error) {
	return newLogger(config, nil)
}

// NewInfrastructureLogger creates a logger for the Pub/Sub and router internals.
// Their info logs are reported as debug, so they only show up with Debug or Trace.
func NewInfrastructureLogger(config LogConfig) (watermill.LoggerAdapter, error) {
	return newLogger(config, map[slog.Level]slog.Level{
		slog.LevelInfo: slog.LevelDebug,
	})
}

func newLogger(config LogConfig, levelMapping map[slog.Level]slog.Level) (watermill.LoggerAdapter, error) {
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid log config")
	}

	if !config.enabled() {
		return watermill.NopLogger{}, nil
	}

	opts := &slog.HandlerOptions{Level: config.level()}

	var handler slog.Handler
	if config.Format == LogFormatJSON {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return watermill.NewSlogLoggerWithLevelMapping(slog.New(handler), levelMapping), nil
}
