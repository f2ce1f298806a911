package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"reelpipe/internal/ledger"
	"reelpipe/internal/logging"
	"reelpipe/internal/matcher"
	"reelpipe/internal/rewrite"
	"reelpipe/internal/services"
	"reelpipe/internal/sidecar"
	"reelpipe/internal/stage"
)

// Edit transcodes letsgo videos of the configured channel.
type Edit struct{ env *Env }

// NewEdit returns the edit stage.
func NewEdit(env *Env) *Edit { return &Edit{env: env} }

// Name implements stage.Runner.
func (s *Edit) Name() string { return StageEdit }

// Run implements stage.Runner. A failed edit leaves the item in letsgo with
// its original file untouched.
func (s *Edit) Run(ctx context.Context) (*stage.Report, error) {
	logger := s.env.logger("edit")
	report := stage.NewReport("Edición de videos")
	items, err := s.env.Store.Load()
	if err != nil {
		return report, err
	}
	cfg := s.env.Config.Edit
	uploadableDir := s.env.Config.Paths.UploadableDir

	candidates := ledger.Filter(items, ledger.StatusLetsGo)
	if len(candidates) == 0 {
		report.IdleNote = idleNote(ledger.StatusLetsGo)
	}
	for _, item := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		itemLogger := logger.With(logging.String(logging.FieldVideoID, item.VideoID))
		if !editsChannel(cfg.Channel, item.Channel) {
			if !cfg.PassThroughOtherChannels {
				continue
			}
			if _, err := s.env.Store.Transition(item.VideoID, ledger.StatusEdited, nil); err != nil {
				return report, err
			}
			itemLogger.Info("item passed through without editing", logging.String("channel", item.Channel))
			report.Succeed(item, "sin edición")
			continue
		}
		if s.env.Editor == nil {
			return report, services.Wrap(services.ErrConfiguration, StageEdit, "editor", "no editor configured", nil)
		}

		pool, err := matcher.Pool(uploadableDir)
		if err != nil {
			return report, err
		}
		match := matcher.Match(item.Title, pool, matcher.Options{Strategies: matcher.FuzzyStrategies, Logger: itemLogger})
		if match.Video == "" {
			err := services.Wrap(services.ErrNotFound, StageEdit, "find video", "no .mp4 matches the title", nil)
			logging.WarnWithContext(itemLogger, "video not found for edit", "edit_video_missing",
				logging.String("title", item.Title),
			)
			report.Fail(item, err)
			continue
		}

		result, err := s.env.Editor.Edit(ctx, match.Video)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return report, err
			}
			logging.WarnWithContext(itemLogger, "edit failed", "edit_failed",
				logging.String("file", filepath.Base(match.Video)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "item stays in letsgo; original kept"),
			)
			report.Fail(item, err)
			continue
		}
		if _, err := s.env.Store.Transition(item.VideoID, ledger.StatusEdited, nil); err != nil {
			return report, err
		}
		report.Succeed(item, fmt.Sprintf("%s, %.0fs", filepath.Base(result.Path), result.Duration))
	}
	return report, nil
}

// editsChannel reports whether items of channel get edited. An empty
// configured channel edits everything.
func editsChannel(configured, channel string) bool {
	configured = strings.TrimSpace(configured)
	return configured == "" || strings.EqualFold(configured, strings.TrimSpace(channel))
}

// rewriteWords is how many significant title words must agree between the
// ledger item and the sidecar's own title.
const rewriteWords = 3

// Rewrite asks the LLM for new publish metadata and marks items ok.
type Rewrite struct{ env *Env }

// NewRewrite returns the metadata rewrite stage.
func NewRewrite(env *Env) *Rewrite { return &Rewrite{env: env} }

// Name implements stage.Runner.
func (s *Rewrite) Name() string { return StageRewrite }

// Run implements stage.Runner. A failed rewrite still advances the item,
// flagged rewrite_degraded, with the original metadata; a missing sidecar
// leaves it in edited.
func (s *Rewrite) Run(ctx context.Context) (*stage.Report, error) {
	logger := s.env.logger("rewrite")
	report := stage.NewReport("Actualización de metadata")
	items, err := s.env.Store.Load()
	if err != nil {
		return report, err
	}
	uploadableDir := s.env.Config.Paths.UploadableDir

	candidates := ledger.Filter(items, ledger.StatusEdited)
	if len(candidates) == 0 {
		report.IdleNote = idleNote(ledger.StatusEdited)
	}
	for _, item := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		itemLogger := logger.With(logging.String(logging.FieldVideoID, item.VideoID))
		path, meta, err := sidecar.FindByTitle(uploadableDir, item.Title, rewriteWords)
		if err != nil {
			logging.WarnWithContext(itemLogger, "sidecar not found for rewrite", "rewrite_sidecar_missing",
				logging.String("title", item.Title),
				logging.Error(err),
			)
			report.Fail(item, err)
			continue
		}

		degraded := false
		var result rewrite.Result
		if s.env.Rewriter == nil {
			err = rewrite.ErrUnavailable
		} else {
			result, err = s.env.Rewriter.Rewrite(ctx, meta.Title, meta.Description, meta.Tags)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return report, err
			}
			degraded = true
			logging.WarnWithContext(itemLogger, "rewrite failed; keeping original metadata", "rewrite_degraded",
				logging.Error(err),
				logging.String(logging.FieldImpact, "published with the source title and description"),
			)
		} else {
			meta.Title = result.Title
			meta.Description = result.Description
			meta.Tags = result.Tags
		}

		now := s.env.Store.Now()
		meta.Categories = []string{"Trailer"}
		meta.Channel = ""
		meta.MetadataUpdatedAt = now
		if err := sidecar.Write(path, meta); err != nil {
			report.Fail(item, err)
			continue
		}
		if _, err := s.env.Store.Transition(item.VideoID, ledger.StatusOK, func(w *ledger.WorkItem) {
			w.MetadataUpdatedAt = now
			w.RewriteDegraded = degraded
		}); err != nil {
			return report, err
		}
		detail := meta.Title
		if degraded {
			detail = "sin reescritura: " + stage.ErrorDetail(err)
		}
		report.Succeed(item, detail)
	}
	return report, nil
}
