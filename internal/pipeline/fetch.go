package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reelpipe/internal/discovery"
	"reelpipe/internal/ledger"
	"reelpipe/internal/logging"
	"reelpipe/internal/notifications"
	"reelpipe/internal/services"
	"reelpipe/internal/sidecar"
	"reelpipe/internal/stage"
)

// Fetch writes a sidecar for every pending item. In API mode the item moves
// to metadata_downloaded or error; in scrape mode the status is left alone.
type Fetch struct {
	env    *Env
	scrape bool
}

// NewFetch returns the metadata stage. scrape selects the watch-page
// backup; API mode falls back to it when no Data API source is configured.
func NewFetch(env *Env, scrape bool) *Fetch { return &Fetch{env: env, scrape: scrape} }

// Name implements stage.Runner.
func (s *Fetch) Name() string { return StageFetch }

// Run implements stage.Runner.
func (s *Fetch) Run(ctx context.Context) (*stage.Report, error) {
	scrape := s.scrape || s.env.Videos == nil
	if scrape {
		return s.runScrape(ctx)
	}
	return s.runAPI(ctx)
}

func (s *Fetch) runAPI(ctx context.Context) (*stage.Report, error) {
	logger := s.env.logger("fetch")
	report := stage.NewReport("Descarga de metadata")
	items, err := s.env.Store.Load()
	if err != nil {
		return report, err
	}
	videosDir := s.env.Config.Paths.VideosDir
	category := s.env.Config.YouTube.MetadataCategory

	candidates := ledger.Filter(items, ledger.StatusPending)
	if len(candidates) == 0 {
		report.IdleNote = idleNote(ledger.StatusPending)
	}
	for _, item := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		itemLogger := logger.With(logging.String(logging.FieldVideoID, item.VideoID))
		video, err := s.env.Videos.Fetch(ctx, item.VideoID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return report, err
			}
			logging.WarnWithContext(itemLogger, "metadata fetch failed", "metadata_fetch_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "item marked error"),
			)
			if _, terr := s.env.Store.Transition(item.VideoID, ledger.StatusError, nil); terr != nil {
				return report, terr
			}
			report.Fail(item, err)
			continue
		}

		meta := sidecar.Metadata{
			Title:       video.Title,
			Description: video.Description,
			Tags:        video.Tags,
			Categories:  []string{category},
		}
		path := sidecar.PathFor(videosDir, item.Title)
		if err := sidecar.Write(path, meta); err != nil {
			report.Fail(item, err)
			if _, terr := s.env.Store.Transition(item.VideoID, ledger.StatusError, nil); terr != nil {
				return report, terr
			}
			continue
		}
		name := strings.TrimSuffix(sidecar.FileName(item.Title), sidecar.Extension)
		if _, err := s.env.Store.Transition(item.VideoID, ledger.StatusMetadataDownloaded, func(w *ledger.WorkItem) {
			w.SanitizedName = name
		}); err != nil {
			return report, err
		}
		itemLogger.Info("metadata saved",
			logging.String("file", path),
			logging.String(logging.FieldEventType, "metadata_saved"),
		)
		report.Succeed(item, "")
	}
	return report, nil
}

func (s *Fetch) runScrape(ctx context.Context) (*stage.Report, error) {
	logger := s.env.logger("scrape")
	report := stage.NewReport("Metadata extra (scraping)")
	if s.env.Scraper == nil {
		return report, services.Wrap(services.ErrConfiguration, StageFetch, "scrape", "no scraper configured", nil)
	}
	items, err := s.env.Store.Load()
	if err != nil {
		return report, err
	}
	videosDir := s.env.Config.Paths.VideosDir
	category := s.env.Config.YouTube.MetadataCategory

	candidates := ledger.Filter(items, ledger.StatusPending)
	if len(candidates) == 0 {
		report.IdleNote = idleNote(ledger.StatusPending)
	}
	for _, item := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		pageURL := strings.TrimSpace(item.URL)
		if pageURL == "" {
			pageURL = discovery.WatchURL(item.VideoID)
		}
		page, err := s.env.Scraper.Scrape(ctx, pageURL)
		if err != nil {
			logging.WarnWithContext(logger, "scrape failed", "scrape_failed",
				logging.String(logging.FieldVideoID, item.VideoID),
				logging.Error(err),
			)
			report.Fail(item, err)
			continue
		}
		meta := sidecar.Metadata{
			Title:       item.Title,
			Description: page.Description,
			Tags:        page.Tags,
			Categories:  []string{category},
			Channel:     firstNonEmpty(item.Channel, page.Channel),
		}
		if err := sidecar.Write(sidecar.PathFor(videosDir, item.Title), meta); err != nil {
			report.Fail(item, err)
			continue
		}
		report.Succeed(item, fmt.Sprintf("%d tags", len(meta.Tags)))
	}
	return report, nil
}

// Relabel marks freshly fetched items ready for promotion.
type Relabel struct{ env *Env }

// NewRelabel returns the relabel stage.
func NewRelabel(env *Env) *Relabel { return &Relabel{env: env} }

// Name implements stage.Runner.
func (s *Relabel) Name() string { return StageRelabel }

// Run implements stage.Runner. The count is announced directly instead of
// through a summary.
func (s *Relabel) Run(ctx context.Context) (*stage.Report, error) {
	report := stage.NewReport("Actualización de estados")
	report.Quiet = true
	moved, err := s.env.Store.TransitionAll(ledger.StatusMetadataUpdate, ledger.StatusPending, ledger.StatusMetadataDownloaded)
	if err != nil {
		return report, err
	}
	for _, item := range moved {
		report.Succeed(item, "")
	}
	logger := s.env.logger("relabel")
	logger.Info("items relabeled",
		logging.Int("count", len(moved)),
		logging.String(logging.FieldEventType, "items_relabeled"),
	)
	if len(moved) > 0 {
		s.env.notify(ctx, logger, notifications.Relabeled(len(moved)))
	}
	return report, nil
}

// Check reverts metadata_update items whose sidecar disappeared.
type Check struct{ env *Env }

// NewCheck returns the consistency check stage.
func NewCheck(env *Env) *Check { return &Check{env: env} }

// Name implements stage.Runner.
func (s *Check) Name() string { return StageCheck }

// Run implements stage.Runner.
func (s *Check) Run(context.Context) (*stage.Report, error) {
	logger := s.env.logger("check")
	report := stage.NewReport("Verificación de metadata")
	items, err := s.env.Store.Load()
	if err != nil {
		return report, err
	}
	candidates := ledger.Filter(items, ledger.StatusMetadataUpdate)
	if len(candidates) == 0 {
		report.IdleNote = idleNote(ledger.StatusMetadataUpdate)
	}
	for _, item := range candidates {
		if sidecar.Exists(s.env.Config.Paths.VideosDir, item.Title) {
			continue
		}
		if _, err := s.env.Store.Transition(item.VideoID, ledger.StatusPending, nil); err != nil {
			return report, err
		}
		logging.WarnWithContext(logger, "sidecar missing; item reverted to pending", "sidecar_missing",
			logging.String(logging.FieldVideoID, item.VideoID),
			logging.String("expected", sidecar.FileName(item.Title)),
		)
		report.Succeed(item, "revertido a pending")
	}
	return report, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
