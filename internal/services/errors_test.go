package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"reelpipe/internal/services"
)

func TestWrapMessageAndChain(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.Wrap(services.ErrExternalTool, "edit", "concat", " ffmpeg failed ", base)

	if got, want := err.Error(), "external tool error: edit: concat: ffmpeg failed: exit status 1"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, services.ErrExternalTool) || !errors.Is(err, base) {
		t.Fatalf("expected marker and cause in chain, got %v", err)
	}
	var se *services.StageError
	if !errors.As(fmt.Errorf("outer: %w", err), &se) || se.Stage != "edit" {
		t.Fatalf("expected StageError through wrapping, got %#v", se)
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.HasSuffix(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err)
	}
}

func TestMarkerOf(t *testing.T) {
	wrapped := fmt.Errorf("stage: %w", services.Wrap(services.ErrNotFound, "promote", "match", "", nil))
	if got := services.MarkerOf(wrapped); got != services.ErrNotFound {
		t.Fatalf("MarkerOf = %v", got)
	}
	if got := services.MarkerOf(fmt.Errorf("x: %w", services.ErrTimeout)); got != services.ErrTimeout {
		t.Fatalf("MarkerOf bare sentinel = %v", got)
	}
	if got := services.MarkerOf(errors.New("plain")); got != nil {
		t.Fatalf("MarkerOf plain = %v", got)
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		fatal     bool
	}{
		{"transient", services.Wrap(services.ErrTransient, "publish", "insert", "503", nil), true, false},
		{"timeout", services.Wrap(services.ErrTimeout, "approval", "poll", "", nil), true, false},
		{"config", services.Wrap(services.ErrConfiguration, "preflight", "dirs", "missing", nil), false, true},
		{"tool", services.Wrap(services.ErrExternalTool, "preflight", "deps", "ffmpeg", nil), false, true},
		{"not found", services.Wrap(services.ErrNotFound, "promote", "match", "", nil), false, false},
		{"nil", nil, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsRetryable(tc.err); got != tc.retryable {
				t.Fatalf("IsRetryable = %v, want %v", got, tc.retryable)
			}
			if got := services.IsFatal(tc.err); got != tc.fatal {
				t.Fatalf("IsFatal = %v, want %v", got, tc.fatal)
			}
		})
	}
}
