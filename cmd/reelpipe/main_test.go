package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"reelpipe/internal/ledger"
	"reelpipe/internal/runlock"
	"reelpipe/internal/services"
	"reelpipe/internal/testsupport"
)

func TestStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedItems(t, env.store,
		ledger.WorkItem{VideoID: "a", Title: "Uno", Status: ledger.StatusPending},
		ledger.WorkItem{VideoID: "b", Title: "Dos", Status: ledger.StatusOK},
		ledger.WorkItem{VideoID: "c", Title: "Tres", Status: ledger.MissingAssets("IMG")},
	)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if report.Total != 3 || report.LedgerFile != env.cfg.Paths.LedgerFile {
		t.Fatalf("unexpected report header %+v", report)
	}
	counts := map[string]int{}
	for _, c := range report.Counts {
		counts[c.Status] = c.Items
	}
	if counts["pending"] != 1 || counts["ok"] != 1 || counts["error - faltan"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	var telegram *statusCheck
	for i := range report.Checks {
		if report.Checks[i].Name == "Telegram" {
			telegram = &report.Checks[i]
		}
	}
	if telegram == nil || telegram.Passed {
		t.Fatalf("expected a failing Telegram check, got %+v", report.Checks)
	}
}

func TestStatusTable(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedItems(t, env.store,
		ledger.WorkItem{VideoID: "old1", Title: "Primero", Status: ledger.StatusUploaded},
		ledger.WorkItem{VideoID: "new2", Title: "Segundo", Channel: "Netflix", Status: ledger.StatusPending},
	)

	out, _, err := runCLI(t, []string{"status", "--recent", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Ledger ==")
	requireContains(t, out, "pending")
	requireContains(t, out, "== Recent items ==")
	requireContains(t, out, "new2")
	requireContains(t, out, "== Environment ==")
	if strings.Contains(out, "old1") {
		t.Fatalf("expected only the most recent item, got:\n%s", out)
	}
}

func TestPruneWithShortsFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedItems(t, env.store,
		ledger.WorkItem{VideoID: "xSHORTx", Channel: "Netflix", Published: "2025-05-02", Status: ledger.StatusPending},
		ledger.WorkItem{VideoID: "vid1", Channel: "Netflix", Published: "2025-05-01", Status: ledger.StatusPending},
	)

	out, _, err := runCLI(t, []string{"prune", "--shorts"}, env.configPath)
	if err != nil {
		t.Fatalf("prune --shorts: %v", err)
	}
	requireContains(t, out, "Completed: shorts, prune")
	items, err := env.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].VideoID != "vid1" {
		t.Fatalf("unexpected ledger %+v", items)
	}
}

func TestRelabelCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedItems(t, env.store, ledger.WorkItem{VideoID: "vid1", Status: ledger.StatusMetadataDownloaded})

	if _, _, err := runCLI(t, []string{"relabel"}, env.configPath); err != nil {
		t.Fatalf("relabel: %v", err)
	}
	if got := testsupport.MustGet(t, env.store, "vid1").Status; got != ledger.StatusMetadataUpdate {
		t.Fatalf("expected metadata_update, got %q", got)
	}
}

func TestRunRejectsUnknownStage(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "--stages", "fetch,bogus"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddRejectsTrackedVideo(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries("yt-dlp"))
	testsupport.SeedItems(t, env.store, ledger.WorkItem{VideoID: "vid1", Status: ledger.StatusUploaded})

	_, _, err := runCLI(t, []string{"add", "https://www.youtube.com/watch?v=vid1"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestStageCommandsRespectRunLock(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.LockFile = env.baseDir + "/reelpipe.lock"
	writeTestConfig(t, env.configPath, env.cfg)

	held, err := runlock.Acquire(env.cfg.Paths.LockFile)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer held.Release()

	_, _, err = runCLI(t, []string{"relabel"}, env.configPath)
	if !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("expected lock contention, got %v", err)
	}
}

func TestNotifyTestRequiresTelegram(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"notify-test"}, env.configPath)
	if err == nil {
		t.Fatal("expected an error without telegram settings")
	}
	requireContains(t, err.Error(), "telegram is not configured")
}
