package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reelpipe/internal/discovery"
	"reelpipe/internal/ledger"
	"reelpipe/internal/logging"
	"reelpipe/internal/services"
	"reelpipe/internal/stage"
)

// Discover appends new feed entries of every configured channel as pending
// items.
type Discover struct{ env *Env }

// NewDiscover returns the discovery stage.
func NewDiscover(env *Env) *Discover { return &Discover{env: env} }

// Name implements stage.Runner.
func (s *Discover) Name() string { return StageDiscover }

// Run implements stage.Runner. A failing channel is reported and the
// remaining channels are still polled.
func (s *Discover) Run(ctx context.Context) (*stage.Report, error) {
	logger := s.env.logger("discover")
	report := stage.NewReport("Monitoreo de canales")
	channels := s.env.Config.Discovery.Channels
	if len(channels) == 0 {
		logger.Info("no channels configured", logging.String(logging.FieldEventType, "discover_skipped"))
		return report, nil
	}
	if s.env.Feeds == nil {
		return report, services.Wrap(services.ErrConfiguration, StageDiscover, "feeds", "no feed source configured", nil)
	}

	items, err := s.env.Store.Load()
	if err != nil {
		return report, err
	}
	known := make(map[string]struct{}, len(items))
	for _, item := range items {
		known[item.VideoID] = struct{}{}
	}

	var fresh []ledger.WorkItem
	for _, channelID := range channels {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		entries, err := s.env.Feeds.Poll(ctx, channelID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return report, err
			}
			logging.WarnWithContext(logger, "channel poll failed", "channel_poll_failed",
				logging.String("channel_id", channelID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the channel id and network"),
			)
			report.Fail(ledger.WorkItem{VideoID: channelID, Title: "canal " + channelID}, err)
			continue
		}
		if len(entries) == 0 {
			logger.Info("feed returned no entries", logging.String("channel_id", channelID))
			continue
		}
		added := 0
		for _, entry := range entries {
			id := strings.TrimSpace(entry.VideoID)
			if _, ok := known[id]; ok || id == "" {
				continue
			}
			known[id] = struct{}{}
			item := entry.WorkItem(s.env.Store.Now())
			fresh = append(fresh, item)
			report.Succeed(item, item.Channel)
			added++
		}
		logger.Debug("channel polled",
			logging.String("channel_id", channelID),
			logging.Int("entries", len(entries)),
			logging.Int("new", added),
		)
	}

	if len(fresh) == 0 {
		report.Quiet = len(report.Failed) == 0
		return report, nil
	}
	added, err := s.env.Store.Append(fresh...)
	if err != nil {
		return report, fmt.Errorf("append discovered items: %w", err)
	}
	logger.Info("discovery complete",
		logging.Int("added", added),
		logging.Int("channels", len(channels)),
		logging.String(logging.FieldEventType, "discover_complete"),
	)
	return report, nil
}

// Shorts drops items whose video id marks them as shorts.
type Shorts struct{ env *Env }

// NewShorts returns the shorts filter stage.
func NewShorts(env *Env) *Shorts { return &Shorts{env: env} }

// Name implements stage.Runner.
func (s *Shorts) Name() string { return StageShorts }

// Run implements stage.Runner.
func (s *Shorts) Run(context.Context) (*stage.Report, error) {
	report := stage.NewReport("Filtro de shorts")
	removed := 0
	err := s.env.Store.Update(func(items []ledger.WorkItem) ([]ledger.WorkItem, error) {
		kept, n := ledger.FilterShorts(items)
		removed = n
		return kept, nil
	})
	if err != nil {
		return report, err
	}
	s.env.logger("shorts").Info("shorts filtered",
		logging.Int("removed", removed),
		logging.String(logging.FieldEventType, "shorts_filtered"),
	)
	if removed > 0 {
		report.Note(fmt.Sprintf("Se eliminaron %d videos tipo short", removed))
	}
	return report, nil
}

// Prune keeps the newest retention.per_channel items of each channel.
type Prune struct{ env *Env }

// NewPrune returns the retention stage.
func NewPrune(env *Env) *Prune { return &Prune{env: env} }

// Name implements stage.Runner.
func (s *Prune) Name() string { return StagePrune }

// Run implements stage.Runner. The ledger is rewritten once.
func (s *Prune) Run(context.Context) (*stage.Report, error) {
	report := stage.NewReport("Limpieza del historial")
	before, after := 0, 0
	err := s.env.Store.Update(func(items []ledger.WorkItem) ([]ledger.WorkItem, error) {
		before = len(items)
		kept := ledger.Prune(items, s.env.Config.Retention.PerChannel)
		after = len(kept)
		return kept, nil
	})
	if err != nil {
		return report, err
	}
	s.env.logger("prune").Info("ledger pruned",
		logging.Int("before", before),
		logging.Int("after", after),
		logging.Int("per_channel", s.env.Config.Retention.PerChannel),
		logging.String(logging.FieldEventType, "ledger_pruned"),
	)
	if removed := before - after; removed > 0 {
		report.Note(fmt.Sprintf("Se eliminaron %d entradas antiguas; quedan %d", removed, after))
	}
	return report, nil
}

// Add tracks one video supplied by URL.
type Add struct {
	env *Env
	url string
}

// NewAdd returns the manual add stage for rawURL.
func NewAdd(env *Env, rawURL string) *Add { return &Add{env: env, url: strings.TrimSpace(rawURL)} }

// Name implements stage.Runner.
func (s *Add) Name() string { return StageAdd }

// Run implements stage.Runner. Unlike the batch stages, a rejected URL is
// returned as the stage error.
func (s *Add) Run(ctx context.Context) (*stage.Report, error) {
	report := stage.NewReport("Video agregado manualmente")
	report.Quiet = true
	id := discovery.IDFromURL(s.url)
	if id == "" {
		return report, services.Wrap(services.ErrValidation, StageAdd, "parse url", s.url, nil)
	}
	if _, err := s.env.Store.Get(id); err == nil {
		return report, services.Wrap(services.ErrValidation, StageAdd, "check ledger", fmt.Sprintf("video %s already tracked", id), nil)
	} else if !errors.Is(err, ledger.ErrItemNotFound) {
		return report, err
	}
	if s.env.Resolver == nil {
		return report, services.Wrap(services.ErrConfiguration, StageAdd, "resolve", "no resolver configured", nil)
	}
	entry, err := s.env.Resolver.Lookup(ctx, s.url)
	if err != nil {
		return report, err
	}
	item := entry.WorkItem(s.env.Store.Now())
	if _, err := s.env.Store.Append(item); err != nil {
		return report, err
	}
	s.env.logger("add").Info("video added",
		logging.String(logging.FieldVideoID, item.VideoID),
		logging.String("title", item.Title),
		logging.String(logging.FieldEventType, "video_added"),
	)
	report.Succeed(item, item.Channel)
	return report, nil
}
