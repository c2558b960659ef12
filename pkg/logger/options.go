package logger

import (
	"io"
	"log/slog"
)

// Option adjusts how New builds a logger.
type Option func(*config)

// format picks the slog handler New builds.
type format int

const (
	formatText format = iota
	formatPretty
	formatJSON
)

// WithDebug lowers the level to Debug. False keeps Info.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the charmbracelet/log handler used by the terminal
// commands. The last format option wins.
func WithPretty(pretty bool) Option {
	return setFormat(formatPretty, pretty)
}

// WithJSON selects slog JSON, used for serve log files.
func WithJSON(json bool) Option {
	return setFormat(formatJSON, json)
}

func setFormat(f format, on bool) Option {
	return func(c *config) {
		switch {
		case on:
			c.format = f
		case c.format == f:
			c.format = formatText
		}
	}
}

// WithWriter adds output destinations. Without any, logs go to os.Stdout.
func WithWriter(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = append(c.writers, w...)
	}
}

// WithSource adds the caller's file:line to every record.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}
