package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// consoleTimeLayout is local wall time to the second.
const consoleTimeLayout = time.DateTime

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimeLayout)
}

// attrString renders v for the line prefix, where quoting would only add noise.
func attrString(v slog.Value) string {
	return render(v, false)
}

// formatValue renders v as the right-hand side of key=value.
func formatValue(v slog.Value) string {
	return render(v, true)
}

func render(v slog.Value, quote bool) string {
	var s string
	switch v = v.Resolve(); v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if quote && (s == "" || strings.ContainsFunc(s, unsafeRune)) {
		return strconv.Quote(s)
	}
	return s
}

func unsafeRune(r rune) bool {
	return r < ' ' || r == '"'
}
