package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// jsonKeys renames the slog built-ins to the short keys log shippers expect.
var jsonKeys = map[string]string{
	slog.TimeKey:    "ts",
	slog.LevelKey:   "level",
	slog.MessageKey: "msg",
	slog.SourceKey:  "src",
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	})
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	key, builtin := jsonKeys[attr.Key]
	if !builtin {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			return slog.String(key, attr.Value.Time().UTC().Format(time.RFC3339))
		}
	case slog.LevelKey:
		return slog.String(key, strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String(key, filepath.Base(src.File)+":"+strconv.Itoa(src.Line))
		}
	}
	attr.Key = key
	return attr
}
