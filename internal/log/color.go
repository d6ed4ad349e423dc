package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
)

const (
	ansiReset = "\x1b[0m"

	fgRed    = "\x1b[31m"
	fgYellow = "\x1b[33m"
	fgGreen  = "\x1b[32m"
	fgCyan   = "\x1b[36m"

	fgBrightRed    = "\x1b[91m"
	fgBrightYellow = "\x1b[93m"
	fgBrightGreen  = "\x1b[92m"
	fgBrightCyan   = "\x1b[96m"
)

// ThemeColorMap returns the level colors for "dark" or "light".
// Anything else selects light.
func ThemeColorMap(theme string) map[slog.Level]string {
	if strings.EqualFold(strings.TrimSpace(theme), "dark") {
		return map[slog.Level]string{
			slog.LevelDebug: fgBrightCyan,
			slog.LevelInfo:  fgBrightGreen,
			slog.LevelWarn:  fgBrightYellow,
			slog.LevelError: fgBrightRed,
		}
	}

	return map[slog.Level]string{
		slog.LevelDebug: fgCyan,
		slog.LevelInfo:  fgGreen,
		slog.LevelWarn:  fgYellow,
		slog.LevelError: fgRed,
	}
}

// LineWrapper renders records with slog.TextHandler and colors the whole
// line by level. The reset code is written before the trailing newline.
type LineWrapper struct {
	out    io.Writer
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
	groups []string
	colors map[slog.Level]string
}

// NewLineWrapper creates a LineWrapper. A nil colors map selects the light theme.
func NewLineWrapper(out io.Writer, opts *slog.HandlerOptions, colors map[slog.Level]string) *LineWrapper {
	if colors == nil {
		colors = ThemeColorMap("")
	}

	return &LineWrapper{out: out, opts: opts, colors: colors}
}

// Enabled reports whether lvl passes the configured minimum.
func (h *LineWrapper) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.opts == nil || h.opts.Level == nil {
		return true
	}

	return lvl >= h.opts.Level.Level()
}

// Handle formats r and writes it as one colored line.
func (h *LineWrapper) Handle(ctx context.Context, r slog.Record) error {
	var buf bytes.Buffer

	var inner slog.Handler = slog.NewTextHandler(&buf, h.opts)

	for _, g := range h.groups {
		inner = inner.WithGroup(g)
	}

	if len(h.attrs) > 0 {
		inner = inner.WithAttrs(h.attrs)
	}

	if err := inner.Handle(ctx, r); err != nil {
		return err
	}

	line := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})

	out := make([]byte, 0, len(line)+16)
	out = append(out, h.pickColor(r.Level)...)
	out = append(out, line...)
	out = append(out, ansiReset...)
	out = append(out, '\n')

	_, err := h.out.Write(out)

	return err
}

// WithAttrs returns a copy carrying attrs.
func (h *LineWrapper) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	if len(attrs) > 0 {
		cp.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	}

	return &cp
}

// WithGroup returns a copy nested in group name.
func (h *LineWrapper) WithGroup(name string) slog.Handler {
	cp := *h
	cp.groups = append(append([]string(nil), h.groups...), name)

	return &cp
}

func (h *LineWrapper) pickColor(lvl slog.Level) string {
	if c, ok := h.colors[lvl]; ok {
		return c
	}

	switch {
	case lvl >= slog.LevelError:
		return fgRed
	case lvl >= slog.LevelWarn:
		return fgYellow
	case lvl <= slog.LevelDebug:
		return fgCyan
	default:
		return fgGreen
	}
}

var _ slog.Handler = (*LineWrapper)(nil)
