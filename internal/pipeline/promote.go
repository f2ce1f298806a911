package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"reelpipe/internal/fileutil"
	"reelpipe/internal/ledger"
	"reelpipe/internal/logging"
	"reelpipe/internal/matcher"
	"reelpipe/internal/services"
	"reelpipe/internal/stage"
)

// Promote moves complete asset sets into the publish-ready area.
type Promote struct{ env *Env }

// NewPromote returns the promotion stage.
func NewPromote(env *Env) *Promote { return &Promote{env: env} }

// Name implements stage.Runner.
func (s *Promote) Name() string { return StagePromote }

// Run implements stage.Runner. The file moves and the letsgo transition
// succeed or fail together.
func (s *Promote) Run(ctx context.Context) (*stage.Report, error) {
	logger := s.env.logger("promote")
	report := stage.NewReport("Archivos listos para edición")
	items, err := s.env.Store.Load()
	if err != nil {
		return report, err
	}
	videosDir := s.env.Config.Paths.VideosDir
	uploadableDir := s.env.Config.Paths.UploadableDir

	candidates := ledger.Filter(items, ledger.StatusMetadataUpdate)
	if len(candidates) == 0 {
		report.IdleNote = idleNote(ledger.StatusMetadataUpdate)
	}
	for _, item := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		pool, err := matcher.Pool(videosDir)
		if err != nil {
			return report, err
		}
		itemLogger := logger.With(logging.String(logging.FieldVideoID, item.VideoID))
		result := matcher.Match(item.Title, pool, matcher.Options{Strategies: matcher.PromotionStrategies, Logger: itemLogger})
		if !result.Complete() {
			s.handleIncomplete(itemLogger, report, item, result)
			continue
		}

		moved, err := moveAll(result.Files(), uploadableDir)
		if err != nil {
			rollback(itemLogger, moved)
			logging.WarnWithContext(itemLogger, "asset move failed; rolled back", "promote_move_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "item stays in metadata_update"),
			)
			report.Fail(item, err)
			continue
		}
		if _, err := s.env.Store.Transition(item.VideoID, ledger.StatusLetsGo, nil); err != nil {
			rollback(itemLogger, moved)
			return report, err
		}
		itemLogger.Info("assets promoted",
			logging.String("json", filepath.Base(result.JSON)),
			logging.String("video", filepath.Base(result.Video)),
			logging.String("thumbnail", filepath.Base(result.Thumbnail)),
			logging.String(logging.FieldEventType, "assets_promoted"),
		)
		report.Succeed(item, filepath.Base(result.Video))
	}
	return report, nil
}

func (s *Promote) handleIncomplete(logger *slog.Logger, report *stage.Report, item ledger.WorkItem, result matcher.Result) {
	missing := result.Missing()
	labels := make([]string, 0, len(missing))
	for _, class := range missing {
		labels = append(labels, class.Label())
	}
	logger.Debug("asset set incomplete", logging.Any("missing", labels))
	if !s.env.Config.Promote.MarkMissing {
		return
	}
	status := ledger.MissingAssets(labels...)
	if _, err := s.env.Store.Transition(item.VideoID, status, nil); err != nil {
		report.Fail(item, err)
		return
	}
	report.Fail(item, services.Wrap(services.ErrNotFound, StagePromote, "match assets", string(status), nil))
}

type movedFile struct {
	from string
	to   string
}

func moveAll(files []string, dir string) ([]movedFile, error) {
	moved := make([]movedFile, 0, len(files))
	for _, src := range files {
		dst := filepath.Join(dir, filepath.Base(src))
		if err := fileutil.MoveFile(src, dst); err != nil {
			return moved, fmt.Errorf("move %s: %w", filepath.Base(src), err)
		}
		moved = append(moved, movedFile{from: src, to: dst})
	}
	return moved, nil
}

func rollback(logger *slog.Logger, moved []movedFile) {
	for i := len(moved) - 1; i >= 0; i-- {
		if err := fileutil.MoveFile(moved[i].to, moved[i].from); err != nil {
			logging.ErrorWithContext(logger, "rollback move failed", "promote_rollback_failed",
				logging.String("file", moved[i].to),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "move the file back to the videos directory by hand"),
			)
		}
	}
}
