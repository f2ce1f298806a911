package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelpipe/internal/approval"
	"reelpipe/internal/discovery"
	"reelpipe/internal/ledger"
	"reelpipe/internal/logging"
	"reelpipe/internal/matcher"
	"reelpipe/internal/notifications"
	"reelpipe/internal/publish"
	"reelpipe/internal/services"
	"reelpipe/internal/sidecar"
	"reelpipe/internal/stage"
)

// Publish offers ok items for approval and uploads the approved ones.
type Publish struct{ env *Env }

// NewPublish returns the publish stage.
func NewPublish(env *Env) *Publish { return &Publish{env: env} }

// Name implements stage.Runner.
func (s *Publish) Name() string { return StagePublish }

type pendingUpload struct {
	item      ledger.WorkItem
	assets    matcher.Result
	metadata  sidecar.Metadata
	videoFile string
}

// Run implements stage.Runner.
//
// Every ok item with its JSON and MP4 present gets a preview and waits in
// uploading. Approved items are uploaded one at a time as approvals arrive;
// success moves them to uploaded and deletes their files, failure returns
// them to ok. Items still waiting at the deadline return to ok.
func (s *Publish) Run(ctx context.Context) (*stage.Report, error) {
	logger := s.env.logger("publish")
	report := stage.NewReport("Publicación de videos")
	if s.env.Notifier == nil || !notifications.Enabled(s.env.Notifier) || s.env.Gate == nil {
		return report, services.Wrap(services.ErrConfiguration, StagePublish, "approval", "publishing requires telegram approval", nil)
	}

	if stale, err := s.env.Store.TransitionAll(ledger.StatusOK, ledger.StatusUploading); err != nil {
		return report, err
	} else if len(stale) > 0 {
		logging.WarnWithContext(logger, "reset items left uploading by an earlier run", "stale_uploading",
			logging.Int("count", len(stale)),
		)
	}

	items, err := s.env.Store.Load()
	if err != nil {
		return report, err
	}
	ready := ledger.Filter(items, ledger.StatusOK)
	if len(ready) == 0 {
		report.Quiet = true
		s.env.notify(ctx, logger, notifications.NothingToUpload())
		return report, nil
	}

	publisher, err := s.newPublisher(ctx)
	if err != nil {
		return report, err
	}

	pool, err := matcher.Pool(s.env.Config.Paths.UploadableDir)
	if err != nil {
		return report, err
	}
	pending := make(map[string]*pendingUpload, len(ready))
	var order []string
	for _, item := range ready {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		upload, ok := s.prepare(ctx, logger, report, item, pool)
		if !ok {
			continue
		}
		pending[strings.ToLower(item.VideoID)] = upload
		order = append(order, item.VideoID)
	}
	if len(order) == 0 {
		return report, nil
	}

	_, waitErr := s.env.Gate.Wait(ctx, order, approval.Handlers{
		Approved: func(ctx context.Context, videoID string) {
			upload := pending[strings.ToLower(videoID)]
			if upload == nil {
				return
			}
			s.upload(ctx, logger, report, publisher, upload)
		},
		Expired: func(ctx context.Context, videoIDs []string) {
			for _, id := range videoIDs {
				if _, err := s.env.Store.Transition(id, ledger.StatusOK, nil); err != nil {
					logging.ErrorWithContext(logger, "failed to revert unapproved item", "revert_failed",
						logging.String(logging.FieldVideoID, id),
						logging.Error(err),
					)
				}
				if upload := pending[strings.ToLower(id)]; upload != nil {
					report.Fail(upload.item, errors.New("no autorizado a tiempo"))
				}
			}
			s.env.notify(ctx, logger, notifications.ApprovalExpired(videoIDs))
		},
	})
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) && !errors.Is(waitErr, context.DeadlineExceeded) {
		return report, waitErr
	}
	return report, nil
}

func (s *Publish) newPublisher(ctx context.Context) (publish.Publisher, error) {
	if s.env.NewPublisher == nil {
		return nil, services.Wrap(services.ErrConfiguration, StagePublish, "publisher", "no publisher configured", nil)
	}
	return s.env.NewPublisher(ctx)
}

// prepare resolves the assets of item, sends the preview and moves the item
// to uploading. It returns false when the item cannot be offered.
func (s *Publish) prepare(ctx context.Context, logger *slog.Logger, report *stage.Report, item ledger.WorkItem, pool []string) (*pendingUpload, bool) {
	itemLogger := logger.With(logging.String(logging.FieldVideoID, item.VideoID))
	assets := matcher.Lookup(item.Title, pool, itemLogger)

	var meta sidecar.Metadata
	metaOK := false
	if assets.JSON != "" {
		var err error
		if meta, err = sidecar.Read(assets.JSON); err == nil {
			metaOK = true
		} else {
			logging.WarnWithContext(itemLogger, "sidecar unreadable", "sidecar_invalid", logging.Error(err))
		}
	}
	var missing []string
	if assets.JSON == "" {
		missing = append(missing, matcher.ClassMetadata.Label())
	}
	if assets.Video == "" {
		missing = append(missing, matcher.ClassVideo.Label())
	}
	if !metaOK {
		missing = append(missing, "metadata")
	}
	if len(missing) > 0 {
		status := ledger.MissingAssets(missing...)
		if _, err := s.env.Store.Transition(item.VideoID, status, nil); err != nil {
			report.Fail(item, err)
			return nil, false
		}
		logging.WarnWithContext(itemLogger, "assets missing for publish", "publish_assets_missing",
			logging.String("status", string(status)),
			logging.String("title", item.Title),
		)
		report.Fail(item, services.Wrap(services.ErrNotFound, StagePublish, "lookup assets", string(status), nil))
		return nil, false
	}
	if assets.Thumbnail == "" {
		itemLogger.Warn("no thumbnail found; continuing without one", logging.String("title", item.Title))
	}

	preview := notifications.Preview{
		VideoID:   item.VideoID,
		Title:     item.Title,
		VideoFile: filepath.Base(assets.Video),
	}
	var err error
	if assets.Thumbnail != "" {
		preview.Thumbnail = filepath.Base(assets.Thumbnail)
		err = s.env.Notifier.NotifyWithImage(ctx, assets.Thumbnail, notifications.PreviewCaption(preview))
	} else {
		err = s.env.Notifier.Notify(ctx, notifications.PreviewCaption(preview))
	}
	if err != nil {
		logging.WarnWithContext(itemLogger, "preview failed", "preview_failed", logging.Error(err))
		if _, terr := s.env.Store.Transition(item.VideoID, ledger.StatusPreviewFailed, nil); terr != nil {
			report.Fail(item, terr)
			return nil, false
		}
		report.Fail(item, err)
		return nil, false
	}

	if _, err := s.env.Store.Transition(item.VideoID, ledger.StatusUploading, nil); err != nil {
		report.Fail(item, err)
		return nil, false
	}
	return &pendingUpload{item: item, assets: assets, metadata: meta, videoFile: assets.Video}, true
}

func (s *Publish) upload(ctx context.Context, logger *slog.Logger, report *stage.Report, publisher publish.Publisher, upload *pendingUpload) {
	item := upload.item
	itemLogger := logger.With(logging.String(logging.FieldVideoID, item.VideoID))
	remoteID, err := publisher.Publish(ctx, upload.videoFile, upload.assets.Thumbnail, publish.Metadata{
		Title:       upload.metadata.Title,
		Description: upload.metadata.Description,
		Tags:        upload.metadata.Tags,
	})
	if err != nil {
		logging.ErrorWithContext(itemLogger, "upload failed", "upload_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "item returned to ok for the next run"),
		)
		if _, terr := s.env.Store.Transition(item.VideoID, ledger.StatusOK, nil); terr != nil {
			itemLogger.Error("failed to revert item after upload failure", logging.Error(terr))
		}
		s.env.notify(ctx, itemLogger, notifications.UploadFailed(item.VideoID))
		report.Fail(item, err)
		return
	}

	if _, err := s.env.Store.Transition(item.VideoID, ledger.StatusUploaded, func(w *ledger.WorkItem) {
		w.YouTubeID = remoteID
		w.UploadedAt = s.env.Store.Now()
	}); err != nil {
		logging.ErrorWithContext(itemLogger, "uploaded but ledger update failed", "ledger_update_failed",
			logging.String("remote_id", remoteID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set the item to uploaded by hand to avoid a duplicate upload"),
		)
		report.Fail(item, err)
		return
	}
	for _, file := range upload.assets.Files() {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(itemLogger, "cleanup failed", "cleanup_failed",
				logging.String("file", filepath.Base(file)),
				logging.Error(err),
			)
		}
	}
	itemLogger.Info("video published",
		logging.String("remote_id", remoteID),
		logging.String(logging.FieldEventType, "video_published"),
	)
	s.env.notify(ctx, itemLogger, notifications.UploadSucceeded(item.VideoID, remoteID))
	report.Succeed(item, discovery.WatchURL(remoteID))
}
