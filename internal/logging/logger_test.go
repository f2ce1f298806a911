package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelpipe/internal/config"
	"reelpipe/internal/logging"
	"reelpipe/internal/services"
)

func TestNewFromConfigWritesDailyFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(logging.DailyLogPath(cfg.Paths.LogDir, time.Now()))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller", logging.String(logging.FieldComponent, "ledger"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(string(content), "[ledger]") {
		t.Fatalf("expected component in header, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "debug",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleSubjectAndFieldLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "subject.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldVideoID, "abc123"),
		logging.String(logging.FieldStage, "publish"),
	}
	for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		attrs = append(attrs, logging.String(key, "v"))
	}
	logger.Info("uploaded", logging.Args(attrs...)...)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "abc123 (publish) | uploaded") {
		t.Fatalf("expected subject in header, got %q", text)
	}
	if !strings.Contains(text, "(+2 more)") {
		t.Fatalf("expected hidden field count, got %q", text)
	}
}

func TestNewJSONLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "info" || record["msg"] != "json message" || record["k"] != "v" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithVideoID(ctx, "abc123")
	ctx = services.WithStage(ctx, "edit")
	ctx = services.WithRunID(ctx, "run-xyz")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for key, want := range map[string]string{
		logging.FieldVideoID:       "abc123",
		logging.FieldStage:         "edit",
		logging.FieldRunID:   "run-xyz",
	} {
		if record[key] != want {
			t.Fatalf("field %s = %v, want %q", key, record[key], want)
		}
	}
}

func TestContextRecordsAreTagged(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithStage(services.WithRunID(context.Background(), "run-1"), "promote")
	logger.With(logging.String(logging.FieldStage, "bound")).InfoContext(ctx, "tagged")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record[logging.FieldRunID] != "run-1" {
		t.Fatalf("expected run id from context, got %v", record)
	}
	if record[logging.FieldStage] != "bound" {
		t.Fatalf("bound stage should win over context, got %v", record[logging.FieldStage])
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "fetch failed", "metadata_fetch_failed", logging.String(logging.FieldImpact, "item marked error"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record[logging.FieldEventType] != "metadata_fetch_failed" {
		t.Fatalf("unexpected event type %v", record[logging.FieldEventType])
	}
	if record[logging.FieldImpact] != "item marked error" {
		t.Fatalf("expected caller impact preserved, got %v", record[logging.FieldImpact])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
}

func TestPruneDailyLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	oldPath := logging.DailyLogPath(dir, now.AddDate(0, 0, -45))
	recent := logging.DailyLogPath(dir, now.AddDate(0, 0, -2))
	today := logging.DailyLogPath(dir, now)
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{oldPath, recent, today, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := now.AddDate(0, 0, -40)
	for _, p := range []string{oldPath, today, other} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if removed := logging.PruneDailyLogs(logging.NewNop(), dir, 30, now); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, p := range []string{recent, today, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
	if removed := logging.PruneDailyLogs(logging.NewNop(), dir, 0, now); removed != 0 {
		t.Fatalf("zero retention must keep everything, removed %d", removed)
	}
}
