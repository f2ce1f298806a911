package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneDailyLogs deletes daily log files in dir whose modification time is
// more than keepDays before now. The file for now's day is never touched.
// keepDays <= 0 keeps everything.
func PruneDailyLogs(logger *slog.Logger, dir string, keepDays int, now time.Time) int {
	if keepDays <= 0 || dir == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, LogFilePattern))
	if err != nil {
		return 0
	}
	current := DailyLogPath(dir, now)
	cutoff := now.AddDate(0, 0, -keepDays)

	pruned := 0
	for _, path := range matches {
		if path == current {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "could not prune old log file", "log_prune_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check ownership of paths.log_dir"),
				String(FieldImpact, "old log file stays on disk"),
			)
			continue
		}
		pruned++
	}
	if pruned > 0 && logger != nil {
		logger.Debug("old log files pruned", Int("count", pruned), String(FieldEventType, "log_pruned"))
	}
	return pruned
}
