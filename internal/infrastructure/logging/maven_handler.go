package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

var levelNames = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARN",
	slog.LevelError: "ERROR",
}

var levelColors = map[slog.Level]string{
	slog.LevelDebug: colorGray,
	slog.LevelInfo:  colorCyan,
	slog.LevelWarn:  colorYellow,
	slog.LevelError: colorRed,
}

// MavenHandler is a slog.Handler that formats logs in Maven-style:
// [LEVEL] [SYSTEM] [HH:MM:SS] message key=value key=value
type MavenHandler struct {
	w      io.Writer
	level  slog.Level
	mu     *sync.Mutex
	system string // e.g., "tagging", "ledger", "api"
	colors bool
	prefix string // flattened group path for attribute keys
	attrs  []slog.Attr
}

// NewMavenHandler creates a new Maven-style handler. Colors are enabled
// only when the writer is a terminal.
func NewMavenHandler(w io.Writer, opts *slog.HandlerOptions) *MavenHandler {
	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}
	return &MavenHandler{
		w:      w,
		level:  level,
		mu:     &sync.Mutex{},
		colors: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Enabled reports whether the handler handles records at the given level.
func (h *MavenHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes a log record
func (h *MavenHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	h.writeBracket(&buf, levelName(r.Level), levelColors[r.Level])
	if h.system != "" {
		buf.WriteString(" ")
		h.writeBracket(&buf, h.system, "")
	}
	buf.WriteString(" ")
	h.writeBracket(&buf, r.Time.Format("15:04:05"), colorGray)

	buf.WriteString(" ")
	buf.WriteString(r.Message)

	for _, attr := range h.attrs {
		h.appendAttr(&buf, attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, a)
		return true
	})

	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func (h *MavenHandler) writeBracket(buf *strings.Builder, s, color string) {
	if h.colors && color != "" {
		buf.WriteString(color)
	}
	buf.WriteString("[")
	buf.WriteString(s)
	buf.WriteString("]")
	if h.colors && color != "" {
		buf.WriteString(colorReset)
	}
}

// appendAttr writes one key=value pair. The "system" key is skipped since
// it already appears in the bracketed header.
func (h *MavenHandler) appendAttr(buf *strings.Builder, a slog.Attr) {
	if a.Key == systemKey {
		return
	}
	buf.WriteString(" ")
	buf.WriteString(h.prefix)
	buf.WriteString(a.Key)
	buf.WriteString("=")
	val := fmt.Sprint(a.Value.Any())
	if strings.ContainsAny(val, " \t") {
		val = fmt.Sprintf("%q", val)
	}
	buf.WriteString(val)
}

const systemKey = "system"

func (h *MavenHandler) clone() *MavenHandler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	return &c
}

// WithAttrs returns a new handler with the given attributes added. A
// "system" attribute moves into the bracketed header instead.
func (h *MavenHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, attr := range attrs {
		if attr.Key == systemKey {
			c.system = attr.Value.String()
			continue
		}
		c.attrs = append(c.attrs, attr)
	}
	return c
}

// WithGroup returns a new handler that prefixes subsequent attribute keys
// with the group name.
func (h *MavenHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix = h.prefix + name + "."
	return c
}

func levelName(level slog.Level) string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return level.String()
}
