package testsupport

import (
	"testing"
	"time"

	"reelpipe/internal/config"
	"reelpipe/internal/ledger"
)

// FixedNow is the clock reading used by MustOpenStore.
var FixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// MustOpenStore opens the ledger named in cfg with a fixed clock.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	return ledger.NewStore(cfg.Paths.LedgerFile, ledger.WithClock(func() time.Time { return FixedNow }))
}

// SeedItems writes items as the whole ledger.
func SeedItems(t testing.TB, store *ledger.Store, items ...ledger.WorkItem) {
	t.Helper()

	if err := store.Save(items); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
}

// MustGet returns the ledger item with videoID.
func MustGet(t testing.TB, store *ledger.Store, videoID string) ledger.WorkItem {
	t.Helper()

	item, err := store.Get(videoID)
	if err != nil {
		t.Fatalf("store.Get(%s): %v", videoID, err)
	}
	return item
}
