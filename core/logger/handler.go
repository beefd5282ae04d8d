package logger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

type logFormat int

const (
	formatJSON logFormat = iota
	formatKV
)

// defaultKeyOrder pins the leading keys of every log line so that lines
// from different components stay grep-able and diffable.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status", "rid",
	"update_id", "chat_id", "user_id", "handler",
}

type handlerConfig struct {
	level    slog.Leveler
	writer   *syncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders records as ordered key=value or JSON lines.
type structuredHandler struct {
	cfg   handlerConfig
	attrs []slog.Attr
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.cfg.level != nil {
		min = h.cfg.level.Level()
	}
	return level >= min
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup flattens groups; the ordered line format has no nesting.
func (h *structuredHandler) WithGroup(string) slog.Handler { return h }

func (h *structuredHandler) Handle(ctx context.Context, rec slog.Record) error {
	fields := map[string]any{
		"ts":    rec.Time.UTC().Format(time.RFC3339Nano),
		"level": rec.Level.String(),
		"event": rec.Message,
	}
	if rec.Time.IsZero() {
		fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Resolve().Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Resolve().Any()
		return true
	})
	enrichFromContext(ctx, fields)

	keys := orderKeys(fields, h.cfg.keyOrder)

	var line []byte
	if h.cfg.format == formatKV {
		line = renderKV(fields, keys)
	} else {
		line = renderJSON(fields, keys)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func orderKeys(fields map[string]any, order []string) []string {
	keys := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, k := range order {
		if _, ok := fields[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(fields))
	for k := range fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func renderKV(fields map[string]any, keys []string) []byte {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(fields[k]))
	}
	return []byte(b.String())
}

func kvValue(v any) string {
	s := stringify(v)
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		quoted, _ := json.Marshal(s)
		return string(quoted)
	}
	return s
}

func renderJSON(fields map[string]any, keys []string) []byte {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		name, _ := json.Marshal(k)
		b.Write(name)
		b.WriteByte(':')
		val, err := json.Marshal(fields[k])
		if err != nil {
			val, _ = json.Marshal(stringify(fields[k]))
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String())
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Duration:
		return t.String()
	case error:
		return t.Error()
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "?"
		}
		return strings.Trim(string(raw), `"`)
	}
}

// syncWriter serializes line writes across sinks.
type syncWriter struct {
	mu    sync.Mutex
	sinks []io.Writer
}

func newSyncWriter(sinks []io.Writer) *syncWriter {
	out := make([]io.Writer, 0, len(sinks))
	for _, w := range sinks {
		if w != nil {
			out = append(out, w)
		}
	}
	return &syncWriter{sinks: out}
}

func (w *syncWriter) Write(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			return err
		}
	}
	return nil
}
