// Package logging builds the slog loggers used by usdbuild.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"golang.org/x/term"
)

// Mode selects the record format.
type Mode int

const (
	// ModeCLI renders terse, human-readable lines.
	ModeCLI Mode = iota
	// ModeJSON renders one JSON object per record.
	ModeJSON
)

// ParseMode parses "text"/"cli" or "json".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "cli":
		return ModeCLI, nil
	case "json":
		return ModeJSON, nil
	}
	return ModeCLI, fmt.Errorf("unknown log format %q", s)
}

// ParseLevel parses a level name. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New returns a logger writing to w. A nil level means info.
func New(mode Mode, w io.Writer, level slog.Leveler) *slog.Logger {
	if w == nil {
		panic("logging: writer must not be nil")
	}
	if level == nil {
		level = slog.LevelInfo
	}
	if mode == ModeJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&cliHandler{
		w:        w,
		level:    level,
		colorize: isTerminal(w),
		mu:       new(sync.Mutex),
	})
}

// Ensure returns logger, or the process default when nil.
func Ensure(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// cliHandler renders "LEVEL time | message key=value ...".
type cliHandler struct {
	w        io.Writer
	level    slog.Leveler
	colorize bool

	mu     *sync.Mutex
	pre    string // attrs from WithAttrs, already rendered
	groups []string
}

func (h *cliHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *cliHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(h.label(r.Level))
	b.WriteByte(' ')
	b.WriteString(ts.Format(time.TimeOnly))
	b.WriteString(" | ")
	b.WriteString(r.Message)
	b.WriteString(h.pre)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.groups, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *cliHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.pre)
	for _, a := range attrs {
		writeAttr(&b, h.groups, a)
	}
	c := *h
	c.pre = b.String()
	return &c
}

func (h *cliHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string(nil), h.groups...), name)
	return &c
}

func (h *cliHandler) label(level slog.Level) string {
	s := fmt.Sprintf("%-5s", level.String())
	if !h.colorize {
		return s
	}
	switch {
	case level >= slog.LevelError:
		return color.Red.Sprint(s)
	case level >= slog.LevelWarn:
		return color.Yellow.Sprint(s)
	case level >= slog.LevelInfo:
		return color.Cyan.Sprint(s)
	}
	return color.Gray.Sprint(s)
}

func writeAttr(b *strings.Builder, groups []string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		nested := append(append([]string(nil), groups...), a.Key)
		for _, g := range v.Group() {
			writeAttr(b, nested, g)
		}
		return
	}
	if a.Key == "" {
		return
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	switch v.Kind() {
	case slog.KindTime:
		b.WriteString(v.Time().Format(time.RFC3339))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok && err != nil {
			b.WriteString(quote(err.Error()))
			return
		}
		b.WriteString(quote(fmt.Sprint(v.Any())))
	default:
		b.WriteString(quote(v.String()))
	}
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
