package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"reelpipe/internal/config"
	"reelpipe/internal/logging"
	"reelpipe/internal/services"
)

// Video is the remote metadata of one video.
type Video struct {
	ID           string
	Title        string
	Description  string
	Tags         []string
	ChannelTitle string
}

// Fetcher returns remote metadata for a video id. A video the API does not
// know yields services.ErrNotFound.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (Video, error)
}

// consecutiveFailuresToTrip opens the breaker; the fetch stage then fails
// the rest of the batch fast instead of waiting on a dead API.
const consecutiveFailuresToTrip = 5

// YouTubeSource reads videos.list from the YouTube Data API.
type YouTubeSource struct {
	service *youtube.Service
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[Video]
	logger  *slog.Logger
}

// NewYouTubeSource builds a Data API client authenticated with an API key.
func NewYouTubeSource(ctx context.Context, cfg config.YouTube, logger *slog.Logger) (*YouTubeSource, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "youtube client", "youtube.api_key is required", nil)
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if endpoint := strings.TrimSpace(cfg.APIEndpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "youtube client", "", err)
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger = logging.NewComponentLogger(logger, "youtube-metadata")
	src := &YouTubeSource{service: service, timeout: timeout, logger: logger}
	src.breaker = gobreaker.NewCircuitBreaker[Video](gobreaker.Settings{
		Name:        "youtube-data-api",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailuresToTrip
		},
		IsSuccessful: func(err error) bool {
			// an unknown video is an answer, not an outage
			return err == nil || errors.Is(err, services.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
				logging.String(logging.FieldEventType, "circuit_breaker"),
			)
		},
	})
	return src, nil
}

// Fetch implements Fetcher.
func (s *YouTubeSource) Fetch(ctx context.Context, videoID string) (Video, error) {
	video, err := s.breaker.Execute(func() (Video, error) {
		return s.fetch(ctx, videoID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Video{}, services.Wrap(services.ErrTransient, "fetch", "videos.list", "youtube api circuit open", err)
	}
	return video, err
}

func (s *YouTubeSource) fetch(ctx context.Context, videoID string) (Video, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return Video{}, classifyAPIError("videos.list", videoID, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return Video{}, services.Wrap(services.ErrNotFound, "fetch", "videos.list", fmt.Sprintf("video %s not found", videoID), nil)
	}
	item := resp.Items[0]
	tags := item.Snippet.Tags
	if tags == nil {
		tags = []string{}
	}
	return Video{
		ID:           item.Id,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		Tags:         tags,
		ChannelTitle: item.Snippet.ChannelTitle,
	}, nil
}

// classifyAPIError maps a googleapi error onto the service markers.
func classifyAPIError(op, videoID string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "fetch", op, videoID, err)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return services.Wrap(services.ErrTransient, "fetch", op, videoID, err)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "fetch", op, "api key rejected", err)
		default:
			return services.Wrap(services.ErrValidation, "fetch", op, videoID, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "fetch", op, videoID, err)
	}
	return services.Wrap(services.ErrTransient, "fetch", op, videoID, err)
}
