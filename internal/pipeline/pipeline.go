package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelpipe/internal/ledger"
	"reelpipe/internal/logging"
	"reelpipe/internal/metrics"
	"reelpipe/internal/notifications"
	"reelpipe/internal/preflight"
	"reelpipe/internal/services"
	"reelpipe/internal/stage"
	"reelpipe/internal/stageexec"
)

// Options selects stage variants.
type Options struct {
	// Scrape switches the fetch stage to the watch-page backup.
	Scrape bool
	// Metrics receives stage counters; nil disables metrics.
	Metrics *metrics.Recorder
	// Now overrides the wall clock.
	Now func() time.Time
}

// Pipeline runs stages against one Env.
type Pipeline struct {
	env  *Env
	opts Options
}

// New returns a pipeline over env.
func New(env *Env, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{env: env, opts: opts}
}

// Runner returns the stage called name.
func (p *Pipeline) Runner(name string) (stage.Runner, error) {
	switch name {
	case StageDiscover:
		return NewDiscover(p.env), nil
	case StageShorts:
		return NewShorts(p.env), nil
	case StageFetch:
		return NewFetch(p.env, p.opts.Scrape), nil
	case StageRelabel:
		return NewRelabel(p.env), nil
	case StageCheck:
		return NewCheck(p.env), nil
	case StagePromote:
		return NewPromote(p.env), nil
	case StageEdit:
		return NewEdit(p.env), nil
	case StageRewrite:
		return NewRewrite(p.env), nil
	case StagePublish:
		return NewPublish(p.env), nil
	case StagePrune:
		return NewPrune(p.env), nil
	default:
		return nil, services.Wrap(services.ErrValidation, "run", "select stage", fmt.Sprintf("unknown stage %q", name), nil)
	}
}

// Stages resolves a comma-separated selection; empty means the full run.
// The shorts filter only joins a full run when retention.drop_shorts is set.
func (p *Pipeline) Stages(selection string) ([]string, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		names := make([]string, 0, len(DefaultOrder))
		for _, name := range DefaultOrder {
			if name == StageShorts && !p.env.Config.Retention.DropShorts {
				continue
			}
			names = append(names, name)
		}
		return names, nil
	}
	var names []string
	for _, raw := range strings.Split(selection, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if !slices.Contains(DefaultOrder, name) {
			return nil, services.Wrap(services.ErrValidation, "run", "select stage", fmt.Sprintf("unknown stage %q", name), nil)
		}
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, services.Wrap(services.ErrValidation, "run", "select stage", "no stages selected", nil)
	}
	return names, nil
}

// NeedsFor returns the preflight needs of the named stages.
func NeedsFor(names ...string) preflight.Needs {
	var needs preflight.Needs
	for _, name := range names {
		switch name {
		case StageEdit:
			needs.Transcoder = true
			needs.ComplementClip = true
		case StageAdd:
			needs.YTDLP = true
		}
	}
	return needs
}

// Preflight checks the environment for names. A failure sends the critical
// notification.
func (p *Pipeline) Preflight(ctx context.Context, names ...string) error {
	results := preflight.RunAll(ctx, p.env.Config, NeedsFor(names...))
	err := preflight.Err(results)
	if err != nil {
		p.critical(ctx, "preflight", err)
	}
	return err
}

// Run executes the named stages in order after preflight. Each stage is
// isolated: its error is logged and collected and the next stage still
// runs. Panics and fatal errors also send the critical notification.
func (p *Pipeline) Run(ctx context.Context, names []string) error {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.env.Logger)
	logger.Info("run started",
		logging.String("stages", strings.Join(names, ",")),
		logging.String(logging.FieldEventType, "run_start"),
	)

	if err := p.Preflight(ctx, names...); err != nil {
		logger.Error("preflight failed", logging.Error(err), logging.String(logging.FieldEventType, "preflight_failed"))
		return err
	}

	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		runner, err := p.Runner(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := p.RunStage(ctx, runner); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			var panicErr *stageexec.PanicError
			if errors.As(err, &panicErr) || services.IsFatal(err) {
				p.critical(ctx, name, err)
			}
		}
	}

	p.writeMetrics(logger)
	logger.Info("run finished",
		logging.Int("failed_stages", len(errs)),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	return errors.Join(errs...)
}

// RunStage executes one stage with logging, metrics and its summary.
func (p *Pipeline) RunStage(ctx context.Context, runner stage.Runner) (*stage.Report, error) {
	return stageexec.Run(ctx, stageexec.Options{
		Logger:   p.env.Logger,
		Notifier: p.env.Notifier,
		Metrics:  p.opts.Metrics,
		Limits:   p.limits(),
		Runner:   runner,
		Now:      p.opts.Now,
	})
}

func (p *Pipeline) limits() notifications.Limits {
	l := notifications.DefaultLimits
	if n := p.env.Config.Notifications.MaxExamples; n > 0 {
		l.MaxExamples = n
	}
	if w := p.env.Config.Notifications.TitleWidth; w > 0 {
		l.TitleWidth = w
	}
	return l
}

func (p *Pipeline) critical(ctx context.Context, stageName string, err error) {
	p.env.notify(context.WithoutCancel(ctx), p.env.logger("pipeline"), notifications.CriticalError(stageName, err, p.opts.Now()))
}

func (p *Pipeline) writeMetrics(logger *slog.Logger) {
	if p.opts.Metrics == nil {
		return
	}
	if items, err := p.env.Store.Load(); err == nil {
		p.opts.Metrics.LedgerItems(ledger.CountByStatus(items))
	}
	if err := p.opts.Metrics.WriteFile(p.env.Config.Paths.MetricsFile, p.opts.Now()); err != nil {
		logging.WarnWithContext(logger, "metrics write failed", "metrics_write_failed", logging.Error(err))
	}
}
