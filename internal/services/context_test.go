package services_test

import (
	"context"
	"testing"

	"reelpipe/internal/services"
)

func TestRunInfoAccumulates(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStage(ctx, "publish")
	inner := services.WithVideoID(ctx, "abc123")

	want := services.RunInfo{RunID: "run-1", Stage: "publish", VideoID: "abc123"}
	if got := services.RunInfoFrom(inner); got != want {
		t.Fatalf("unexpected run info %+v", got)
	}
	if got := services.RunInfoFrom(ctx); got.VideoID != "" {
		t.Fatalf("parent context must not see the video id, got %+v", got)
	}
}

func TestBlankValuesLeaveContextUntouched(t *testing.T) {
	base := services.WithStage(context.Background(), "edit")
	if services.WithStage(base, "") != base || services.WithVideoID(base, "") != base || services.WithRunID(base, "") != base {
		t.Fatal("blank values should return the same context")
	}
	if got := services.RunInfoFrom(context.Background()); got != (services.RunInfo{}) {
		t.Fatalf("expected empty info, got %+v", got)
	}
}
