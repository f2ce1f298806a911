package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"reelpipe/internal/config"
	"reelpipe/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Needs selects the optional checks for the stages about to run.
type Needs struct {
	Transcoder     bool
	ComplementClip bool
	YTDLP          bool
}

// RunAll executes the directory checks plus whatever needs selects.
func RunAll(ctx context.Context, cfg *config.Config, needs Needs) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		EnsureDirectory("Ledger directory", filepath.Dir(cfg.Paths.LedgerFile)),
		EnsureDirectory("Videos directory", cfg.Paths.VideosDir),
		EnsureDirectory("Uploadable directory", cfg.Paths.UploadableDir),
	}

	for _, status := range CheckSystemDeps(ctx, cfg, needs) {
		r := Result{Name: status.Name, Passed: status.Found()}
		switch {
		case !status.Found():
			r.Detail = status.Err.Error()
		case status.Version != "":
			r.Detail = status.Path + " (" + status.Version + ")"
		default:
			r.Detail = status.Path
		}
		results = append(results, r)
	}

	if needs.ComplementClip {
		results = append(results, CheckFile("Complement clip", cfg.Paths.ComplementClip))
	}

	return results
}

// Err folds failed results into one configuration error, or nil.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r.Name+": "+r.Detail)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check environment", strings.Join(failed, "; "), nil)
}
