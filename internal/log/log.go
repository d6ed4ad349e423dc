// Package log builds the slog loggers used by the engine and the CLI.
package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	// ErrUnknownLevel is returned for a level name slog does not know.
	ErrUnknownLevel = errors.New("log: unknown level")

	// ErrUnknownFormat is returned for a format other than text or json.
	ErrUnknownFormat = errors.New("log: unknown format")

	// ErrUnknownColor is returned for a color mode other than auto, always or never.
	ErrUnknownColor = errors.New("log: unknown color mode")
)

// Options selects level, format and coloring of a logger.
type Options struct {
	Level  string
	Format string
	Color  string
	Theme  string
}

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
// The empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}

	return lvl, nil
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		colored, err := useColor(w, opts.Color)
		if err != nil {
			return nil, err
		}

		if colored {
			return slog.New(NewLineWrapper(w, handlerOpts, ThemeColorMap(opts.Theme))), nil
		}

		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func useColor(w io.Writer, mode string) (bool, error) {
	switch strings.ToLower(mode) {
	case ColorNever:
		return false, nil
	case ColorAlways:
		return true, nil
	case "", ColorAuto:
		f, ok := w.(*os.File)
		if !ok {
			return false, nil
		}

		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownColor, mode)
	}
}
