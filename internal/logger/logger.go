package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Build struct {
	writer io.Writer
	level  string
	format string
}

func New() *Build {
	return &Build{writer: os.Stdout, level: "info", format: "json"}
}

func (b *Build) Writer(w io.Writer) *Build {
	b.writer = w
	return b
}

func (b *Build) Level(level string) *Build {
	b.level = level
	return b
}

// Format is "json" or "console".
func (b *Build) Format(format string) *Build {
	b.format = format
	return b
}

func (b *Build) Make() (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(b.level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", b.level, err)
	}
	w := b.writer
	switch b.format {
	case "json", "":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("log format %q: want json or console", b.format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
