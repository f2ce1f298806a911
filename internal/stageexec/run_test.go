package stageexec_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"reelpipe/internal/ledger"
	"reelpipe/internal/logging"
	"reelpipe/internal/metrics"
	"reelpipe/internal/stage"
	"reelpipe/internal/stageexec"
	"reelpipe/internal/testsupport"
)

type runnerFunc struct {
	name string
	fn   func(ctx context.Context) (*stage.Report, error)
}

func (r runnerFunc) Name() string { return r.name }

func (r runnerFunc) Run(ctx context.Context) (*stage.Report, error) { return r.fn(ctx) }

func TestRunSendsSummaryAndRecordsMetrics(t *testing.T) {
	notifier := &testsupport.Notifier{}
	rec := metrics.New()
	runner := runnerFunc{name: "fetch", fn: func(context.Context) (*stage.Report, error) {
		r := stage.NewReport("Descarga de metadata")
		r.Succeed(ledger.WorkItem{VideoID: "a", Title: "Merlina"}, "")
		r.Fail(ledger.WorkItem{VideoID: "b", Title: "Otro"}, errors.New("no encontrado"))
		return r, nil
	}}

	report, err := stageexec.Run(context.Background(), stageexec.Options{
		Logger: logging.NewNop(), Notifier: notifier, Metrics: rec, Runner: runner,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Total() != 2 {
		t.Fatalf("unexpected total %d", report.Total())
	}
	sent := notifier.Sent()
	if len(sent) != 1 || !strings.Contains(sent[0], "Descarga de metadata") || !strings.Contains(sent[0], "no encontrado") {
		t.Fatalf("unexpected notifications %v", sent)
	}
	expected := `
# HELP reelpipe_stage_items_total Work items handled per stage and outcome
# TYPE reelpipe_stage_items_total counter
reelpipe_stage_items_total{outcome="failed",stage="fetch"} 1
reelpipe_stage_items_total{outcome="succeeded",stage="fetch"} 1
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "reelpipe_stage_items_total"); err != nil {
		t.Fatal(err)
	}
}

func TestRunSkipsEmptyOrQuietSummary(t *testing.T) {
	notifier := &testsupport.Notifier{}
	for _, quiet := range []bool{false, true} {
		runner := runnerFunc{name: "check", fn: func(context.Context) (*stage.Report, error) {
			r := stage.NewReport("Check")
			if quiet {
				r.Succeed(ledger.WorkItem{VideoID: "a"}, "")
				r.Quiet = true
			}
			return r, nil
		}}
		if _, err := stageexec.Run(context.Background(), stageexec.Options{Notifier: notifier, Runner: runner}); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	}
	if len(notifier.Sent()) != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.Sent())
	}
}

func TestRunRecoversPanic(t *testing.T) {
	runner := runnerFunc{name: "edit", fn: func(context.Context) (*stage.Report, error) {
		panic("boom")
	}}
	_, err := stageexec.Run(context.Background(), stageexec.Options{Runner: runner})
	var panicErr *stageexec.PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected panic error, got %v", err)
	}
	if panicErr.Stage != "edit" || len(panicErr.Stack) == 0 {
		t.Fatalf("unexpected panic error %+v", panicErr)
	}
}

func TestRunReturnsStageError(t *testing.T) {
	notifier := &testsupport.Notifier{}
	want := errors.New("ledger unreadable")
	runner := runnerFunc{name: "promote", fn: func(context.Context) (*stage.Report, error) {
		return nil, want
	}}
	report, err := stageexec.Run(context.Background(), stageexec.Options{Notifier: notifier, Runner: runner})
	if !errors.Is(err, want) {
		t.Fatalf("expected stage error, got %v", err)
	}
	if report == nil || report.Total() != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
	if len(notifier.Sent()) != 0 {
		t.Fatalf("expected no summary when nothing was handled, got %v", notifier.Sent())
	}
}

func TestRunSummarizesPartialStageFailure(t *testing.T) {
	notifier := &testsupport.Notifier{}
	want := errors.New("ledger write failed mid-batch")
	runner := runnerFunc{name: "promote", fn: func(context.Context) (*stage.Report, error) {
		r := stage.NewReport("Archivos listos para edición")
		r.IdleNote = "nothing to do"
		r.Succeed(ledger.WorkItem{VideoID: "a", Title: "Merlina"}, "")
		r.Fail(ledger.WorkItem{VideoID: "b", Title: "Otro"}, errors.New("faltan: MP4"))
		return r, want
	}}
	report, err := stageexec.Run(context.Background(), stageexec.Options{Notifier: notifier, Runner: runner})
	if !errors.Is(err, want) {
		t.Fatalf("expected stage error, got %v", err)
	}
	if report.Total() != 2 {
		t.Fatalf("unexpected total %d", report.Total())
	}
	sent := notifier.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected one summary, got %v", sent)
	}
	for _, want := range []string{"Archivos listos para edición", "Merlina", "faltan: MP4", "Etapa interrumpida: ledger write failed mid-batch"} {
		if !strings.Contains(sent[0], want) {
			t.Fatalf("summary %q missing %q", sent[0], want)
		}
	}
	if strings.Contains(sent[0], "nothing to do") {
		t.Fatalf("idle note leaked into a non-empty summary: %q", sent[0])
	}
}

func TestRunSendsIdleNoteForEmptyBatch(t *testing.T) {
	notifier := &testsupport.Notifier{}
	runner := runnerFunc{name: "rewrite", fn: func(context.Context) (*stage.Report, error) {
		r := stage.NewReport("Actualización de metadata")
		r.IdleNote = "No hay videos con estado 'edited' para procesar."
		return r, nil
	}}
	if _, err := stageexec.Run(context.Background(), stageexec.Options{Notifier: notifier, Runner: runner}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	sent := notifier.Sent()
	if len(sent) != 1 || !strings.Contains(sent[0], "Actualización de metadata") || !strings.Contains(sent[0], "No hay videos con estado &#39;edited&#39;") {
		t.Fatalf("unexpected notifications %v", sent)
	}
}
