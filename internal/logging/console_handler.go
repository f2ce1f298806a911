package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// consoleFieldLimit caps the key=value pairs printed on an info line.
const consoleFieldLimit = 8

// leadingKeys are printed before other fields, in this order.
var leadingKeys = []string{
	FieldAlert,
	FieldEventType,
	"status",
	"from_status",
	"to_status",
	"title",
	"error",
	FieldErrorHint,
	FieldImpact,
	"stage_duration",
	"processed",
	"succeeded",
	"failed",
}

// consoleHandler writes one human readable line per record:
//
//	2026-03-10 09:00:00 INFO  [pipeline] abc123 (publish) | uploaded  status=uploaded bytes=120
type consoleHandler struct {
	out       *lockedWriter
	level     *slog.LevelVar
	prefix    string
	bound     []field
	addSource bool
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := slices.Clone(h.bound)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})
	fields = lastWins(fields)

	var component, videoID, stage string
	rest := fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = attrString(f.value)
		case FieldVideoID:
			videoID = attrString(f.value)
		case FieldStage:
			stage = attrString(f.value)
		default:
			rest = append(rest, f)
		}
	}

	var b strings.Builder
	b.WriteString(formatTimestamp(record.Time))
	b.WriteByte(' ')
	b.WriteString(padLevel(record.Level))
	if component != "" {
		b.WriteString(" [" + component + "]")
	}
	if subject := subjectOf(videoID, stage); subject != "" {
		b.WriteString(" " + subject + " |")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(" " + msg)

	limit := consoleFieldLimit
	if record.Level < slog.LevelInfo {
		limit = len(rest)
	}
	shown, hidden := leadingFirst(rest, limit)
	if len(shown) > 0 {
		b.WriteByte(' ')
	}
	for _, f := range shown {
		b.WriteString(" " + f.key + "=" + formatValue(f.value))
	}
	if hidden > 0 {
		b.WriteString(" (+" + strconv.Itoa(hidden) + " more)")
	}
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			b.WriteString(" @" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
		}
	}
	b.WriteByte('\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := io.WriteString(h.out.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.bound = slices.Clone(h.bound)
	for _, attr := range attrs {
		next.bound = appendField(next.bound, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, prefix string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			dst = appendField(dst, prefix, member)
		}
		return dst
	}
	if attr.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + attr.Key, value: attr.Value})
}

// lastWins keeps the first position of each key with its last value.
func lastWins(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func leadingFirst(fields []field, limit int) ([]field, int) {
	rank := func(key string) int {
		if i := slices.Index(leadingKeys, key); i >= 0 {
			return i
		}
		return len(leadingKeys)
	}
	ordered := slices.Clone(fields)
	slices.SortStableFunc(ordered, func(a, b field) int { return rank(a.key) - rank(b.key) })
	if len(ordered) <= limit {
		return ordered, 0
	}
	return ordered[:limit], len(ordered) - limit
}

func subjectOf(videoID, stage string) string {
	videoID, stage = strings.TrimSpace(videoID), strings.TrimSpace(stage)
	switch {
	case videoID != "" && stage != "":
		return videoID + " (" + stage + ")"
	case videoID != "":
		return videoID
	default:
		return stage
	}
}

func padLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}
