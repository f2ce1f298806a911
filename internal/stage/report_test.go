package stage

import (
	"errors"
	"fmt"
	"testing"

	"reelpipe/internal/ledger"
	"reelpipe/internal/services"
)

func TestReportTotals(t *testing.T) {
	r := NewReport("Metadata")
	if !r.Empty() {
		t.Fatal("expected new report to be empty")
	}
	r.Succeed(ledger.WorkItem{VideoID: "a", Title: "A"}, "")
	r.Fail(ledger.WorkItem{VideoID: "b", Title: "B"}, errors.New("boom"))
	if r.Total() != 2 || r.Empty() {
		t.Fatalf("unexpected totals %d", r.Total())
	}
	summary := r.Summary()
	if summary.Heading != "Metadata" || summary.Total != 2 || summary.Failed[0].Detail != "boom" {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestReportNoteMakesNonEmpty(t *testing.T) {
	r := NewReport("Prune")
	r.Note("3 eliminados")
	if r.Empty() {
		t.Fatal("expected report with a note to be non-empty")
	}
}

func TestErrorDetailStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrExternalTool, "edit", "ffmpeg", "concat failed", nil)
	if got := ErrorDetail(err); got != "edit: ffmpeg: concat failed" {
		t.Fatalf("unexpected detail %q", got)
	}
	wrapped := fmt.Errorf("outer: %w", errors.New("inner"))
	if got := ErrorDetail(wrapped); got != "outer: inner" {
		t.Fatalf("unexpected detail %q", got)
	}
	if ErrorDetail(nil) != "" {
		t.Fatal("expected empty detail for nil")
	}
}
