package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"reelpipe/internal/logging"
	"reelpipe/internal/metrics"
	"reelpipe/internal/notifications"
	"reelpipe/internal/services"
	"reelpipe/internal/stage"
)

// Options controls one stage execution.
type Options struct {
	Logger   *slog.Logger
	Notifier notifications.Service
	Metrics  *metrics.Recorder
	Limits   notifications.Limits
	Runner   stage.Runner
	Now      func() time.Time
}

// PanicError is returned when a stage panics.
type PanicError struct {
	Stage string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("stage %s panicked: %v", e.Stage, e.Value)
}

// Run executes a stage with logging, panic recovery, metrics and the summary
// notification. The stage error is returned unchanged.
func Run(ctx context.Context, opts Options) (report *stage.Report, err error) {
	if opts.Runner == nil {
		return nil, fmt.Errorf("stage runner unavailable")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	name := opts.Runner.Name()
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)

	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := now()

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Stage: name, Value: r, Stack: debug.Stack()}
			stageLogger.Error("stage panicked",
				logging.String(logging.FieldEventType, "stage_panic"),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
		}
		elapsed := now().Sub(started)
		opts.Metrics.StageFinished(name, elapsed, err)
		if report != nil {
			opts.Metrics.StageItems(name, metrics.OutcomeSucceeded, len(report.Succeeded))
			opts.Metrics.StageItems(name, metrics.OutcomeFailed, len(report.Failed))
		}
		if err != nil {
			stageLogger.Error("stage failed",
				logging.String(logging.FieldEventType, "stage_failure"),
				logging.Duration("elapsed", elapsed),
				logging.Error(err),
			)
		} else {
			stageLogger.Info("stage completed",
				logging.String(logging.FieldEventType, "stage_complete"),
				logging.Int("succeeded", len(report.Succeeded)),
				logging.Int("failed", len(report.Failed)),
				logging.Duration("elapsed", elapsed),
			)
		}
		notifySummary(stageCtx, stageLogger, opts, report, err, now())
	}()

	report, err = opts.Runner.Run(stageCtx)
	if report == nil {
		report = stage.NewReport(name)
	}
	return report, err
}

// notifySummary sends the stage summary. A stage that failed after handling
// items also names the failure; one that failed before handling anything
// sends nothing.
func notifySummary(ctx context.Context, logger *slog.Logger, opts Options, report *stage.Report, stageErr error, at time.Time) {
	if opts.Notifier == nil || report == nil || report.Quiet {
		return
	}
	summary := report.Summary()
	switch {
	case report.Empty() && stageErr != nil:
		return
	case report.Empty() && report.IdleNote == "":
		return
	case report.Empty():
		summary.Notes = []string{report.IdleNote}
	case stageErr != nil:
		summary.Notes = append(slices.Clone(summary.Notes), "⚠️ Etapa interrumpida: "+stage.ErrorDetail(stageErr))
	}
	summary.CompletedAt = at
	limits := opts.Limits
	if limits == (notifications.Limits{}) {
		limits = notifications.DefaultLimits
	}
	if err := opts.Notifier.Notify(ctx, summary.Render(limits)); err != nil {
		logging.WarnWithContext(logger, "stage summary notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "summary only in logs"),
		)
	}
}
