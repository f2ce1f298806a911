package notifications_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"reelpipe/internal/notifications"
)

func TestSummaryCapsExamplesPerList(t *testing.T) {
	summary := notifications.Summary{Heading: "Metadata", Total: 14}
	for i := range 12 {
		summary.Succeeded = append(summary.Succeeded, notifications.Entry{VideoID: fmt.Sprintf("id%d", i), Title: fmt.Sprintf("Video %d", i)})
	}
	summary.Failed = []notifications.Entry{{Title: "Broken <one>", Detail: "sin resultados"}, {Title: "Broken two"}}

	text := summary.Render(notifications.Limits{MaxExamples: 10, TitleWidth: 50, MaxRunes: 3800})

	for _, want := range []string{
		"📊 <b>Total procesados:</b> 14",
		"✅ <b>Exitosos:</b> 12",
		"❌ <b>Fallidos:</b> 2",
		"10. Video 9 (<code>id9</code>)",
		"... y 2 más",
		"1. Broken &lt;one&gt;",
		"🚫 sin resultados",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in summary:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Video 10") {
		t.Fatalf("expected 11th example to be hidden:\n%s", text)
	}
}

func TestSummaryTruncatesTitles(t *testing.T) {
	long := strings.Repeat("a", 80)
	text := notifications.Summary{Heading: "Edit", Succeeded: []notifications.Entry{{Title: long}}}.Render(notifications.DefaultLimits)
	want := "1. " + strings.Repeat("a", 50) + "..."
	if !strings.Contains(text, want) {
		t.Fatalf("expected truncated title, got:\n%s", text)
	}
}

func TestSummaryRespectsOverallCap(t *testing.T) {
	summary := notifications.Summary{Heading: "Upload", CompletedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	for i := range 200 {
		summary.Failed = append(summary.Failed, notifications.Entry{
			Title:  fmt.Sprintf("%03d %s", i, strings.Repeat("x", 45)),
			Detail: strings.Repeat("motivo ", 12),
		})
	}
	limits := notifications.Limits{MaxExamples: 200, TitleWidth: 50, MaxRunes: 1000}

	text := summary.Render(limits)
	if n := utf8.RuneCountInString(text); n > limits.MaxRunes {
		t.Fatalf("expected at most %d runes, got %d", limits.MaxRunes, n)
	}
	if !strings.Contains(text, "más") {
		t.Fatalf("expected overflow trailer, got:\n%s", text)
	}
	if !strings.HasSuffix(text, "🕒 <b>Completado:</b> 2025-01-02 03:04:05") {
		t.Fatalf("expected completion line last, got:\n%s", text)
	}
}

func TestMessageTemplates(t *testing.T) {
	if got := notifications.UploadSucceeded("abc", "yt123"); !strings.Contains(got, "https://youtube.com/watch?v=yt123") {
		t.Fatalf("unexpected success message %q", got)
	}
	if got := notifications.UploadFailed("abc"); got != "❌ Error subiendo: abc" {
		t.Fatalf("unexpected failure message %q", got)
	}
	if got := notifications.ApprovalExpired([]string{"a", "b"}); got != "⏰ Videos no autorizados:\n• a\n• b" {
		t.Fatalf("unexpected expiry message %q", got)
	}
	got := notifications.CriticalError("run", errors.New("disk <full>"), time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC))
	if !strings.Contains(got, "ERROR CRÍTICO - run") || !strings.Contains(got, "disk &lt;full&gt;") || !strings.Contains(got, "2025-05-06 07:08:09") {
		t.Fatalf("unexpected critical message %q", got)
	}
	caption := notifications.PreviewCaption(notifications.Preview{VideoID: "ID1", Title: strings.Repeat("t", 120), VideoFile: "v.mp4"})
	if !strings.Contains(caption, strings.Repeat("t", 100)+"...") || strings.Contains(caption, strings.Repeat("t", 101)) {
		t.Fatalf("expected title cut at 100 runes: %q", caption)
	}
	if !strings.Contains(caption, "Responde: <code>yes ID1</code>") {
		t.Fatalf("missing approval hint: %q", caption)
	}
}
