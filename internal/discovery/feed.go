package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"reelpipe/internal/config"
	"reelpipe/internal/ledger"
	"reelpipe/internal/logging"
	"reelpipe/internal/services"
)

// Entry is one video announced by a channel feed or resolved manually.
type Entry struct {
	VideoID   string
	URL       string
	Title     string
	Channel   string
	ChannelID string
	Published string
}

// WorkItem converts e into a pending ledger item found at foundAt.
func (e Entry) WorkItem(foundAt string) ledger.WorkItem {
	return ledger.WorkItem{
		VideoID:   e.VideoID,
		URL:       e.URL,
		Title:     e.Title,
		Channel:   e.Channel,
		ChannelID: e.ChannelID,
		Published: e.Published,
		FoundAt:   foundAt,
		Status:    ledger.StatusPending,
	}
}

// Source lists recent entries of one channel. An empty result is not an error.
type Source interface {
	Poll(ctx context.Context, channelID string) ([]Entry, error)
}

// FeedSource reads a channel's public Atom feed.
type FeedSource struct {
	parser     *gofeed.Parser
	feedURL    string
	maxEntries int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewFeedSource builds a feed reader from the discovery settings. Requests
// are paced by RequestsPerSecond; zero disables pacing.
func NewFeedSource(cfg config.Discovery, logger *slog.Logger) *FeedSource {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Second}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &FeedSource{
		parser:     parser,
		feedURL:    cfg.FeedURL,
		maxEntries: cfg.MaxEntries,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logging.NewComponentLogger(logger, "discovery"),
	}
}

// FeedURL returns the feed address for channelID.
func (s *FeedSource) FeedURL(channelID string) (string, error) {
	u, err := url.Parse(s.feedURL)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "discover", "feed url", s.feedURL, err)
	}
	q := u.Query()
	q.Set("channel_id", channelID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Poll implements Source.
func (s *FeedSource) Poll(ctx context.Context, channelID string) ([]Entry, error) {
	feedURL, err := s.FeedURL(channelID)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, services.Wrap(services.ErrNotFound, "discover", "fetch feed", channelID, err)
		}
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, services.Wrap(services.ErrValidation, "discover", "parse feed", channelID, err)
		}
		return nil, services.Wrap(services.ErrTransient, "discover", "fetch feed", channelID, err)
	}

	items := feed.Items
	if s.maxEntries > 0 && len(items) > s.maxEntries {
		items = items[:s.maxEntries]
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		id := videoIDOf(item)
		if id == "" {
			s.logger.Debug("feed entry without video id", logging.String("link", item.Link))
			continue
		}
		entries = append(entries, Entry{
			VideoID:   id,
			URL:       item.Link,
			Title:     strings.TrimSpace(item.Title),
			Channel:   authorOf(item, feed),
			ChannelID: channelID,
			Published: item.Published,
		})
	}
	return entries, nil
}

// VideoIDFromLink returns the text after the last "=" of a watch link.
func VideoIDFromLink(link string) string {
	link = strings.TrimSpace(link)
	idx := strings.LastIndex(link, "=")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(link[idx+1:])
}

func videoIDOf(item *gofeed.Item) string {
	if id := VideoIDFromLink(item.Link); id != "" {
		return id
	}
	if yt, ok := item.Extensions["yt"]; ok {
		if values := yt["videoId"]; len(values) > 0 {
			return strings.TrimSpace(values[0].Value)
		}
	}
	return ""
}

func authorOf(item *gofeed.Item, feed *gofeed.Feed) string {
	for _, person := range item.Authors {
		if person != nil && strings.TrimSpace(person.Name) != "" {
			return strings.TrimSpace(person.Name)
		}
	}
	for _, person := range feed.Authors {
		if person != nil && strings.TrimSpace(person.Name) != "" {
			return strings.TrimSpace(person.Name)
		}
	}
	return strings.TrimSpace(feed.Title)
}

// String describes the source for logs.
func (s *FeedSource) String() string {
	return fmt.Sprintf("feed(%s)", s.feedURL)
}
