package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"reelpipe/internal/config"
)

// LogFilePattern matches the daily log files written by NewFromConfig.
const LogFilePattern = "reelpipe-*.log"

// Options configures New.
type Options struct {
	// Level is debug, info, warn or error. Anything else means info.
	Level string
	// Format is console (default) or json.
	Format string
	// Outputs lists destinations: "stdout", "stderr" or a file path opened
	// for append. Empty means stdout.
	Outputs []string
}

// New builds a logger. Debug level also records the caller location.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	addSource := level.Level() <= slog.LevelDebug

	var build func(io.Writer, *slog.LevelVar, bool) slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		build = newConsoleHandler
	case "json":
		build = newJSONHandler
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	out, err := openOutputs(opts.Outputs)
	if err != nil {
		return nil, err
	}
	return slog.New(withContextFields(build(out, level, addSource))), nil
}

// NewFromConfig logs to stderr, keeping stdout clean for --json output, and to
// the day's file in paths.log_dir when one is set.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Outputs: []string{"stderr"}})
	}
	outputs := []string{"stderr"}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		outputs = append(outputs, DailyLogPath(dir, time.Now()))
	}
	return New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Outputs: outputs})
}

// DailyLogPath returns the log file for day inside dir.
func DailyLogPath(dir string, day time.Time) string {
	return filepath.Join(dir, "reelpipe-"+day.Format(time.DateOnly)+".log")
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	switch name := strings.ToLower(strings.TrimSpace(level)); name {
	case "warning":
		return slog.LevelWarn
	default:
		if err := l.UnmarshalText([]byte(name)); err != nil {
			return slog.LevelInfo
		}
		return l
	}
}

func openOutputs(targets []string) (io.Writer, error) {
	var writers []io.Writer
	var seen []string
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" || slices.Contains(seen, target) {
			continue
		}
		seen = append(seen, target)
		switch target {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, fmt.Errorf("ensure log directory: %w", err)
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", target, err)
			}
			writers = append(writers, f)
		}
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}
