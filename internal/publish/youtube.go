package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"reelpipe/internal/config"
	"reelpipe/internal/logging"
	"reelpipe/internal/services"
)

// Metadata is what gets published alongside the video.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

// Publisher uploads a video and returns the remote id.
type Publisher interface {
	Publish(ctx context.Context, videoPath, thumbnailPath string, meta Metadata) (string, error)
}

// Inserter performs the raw API calls. YouTubeInserter is the production
// implementation.
type Inserter interface {
	InsertVideo(ctx context.Context, video *youtube.Video, media io.Reader, size int64, progress func(current, total int64)) (string, error)
	SetThumbnail(ctx context.Context, videoID string, media io.Reader) error
}

// YouTubeInserter talks to the YouTube Data API upload endpoints.
type YouTubeInserter struct {
	service *youtube.Service
}

// NewYouTubeInserter authenticates with the saved OAuth token, refreshing and
// re-saving it as needed.
func NewYouTubeInserter(ctx context.Context, cfg config.YouTube) (*YouTubeInserter, error) {
	oauthCfg, err := OAuthConfig(cfg.ClientSecretsFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	opts := []option.ClientOption{option.WithTokenSource(newSavingTokenSource(ctx, oauthCfg, tok, cfg.TokenFile))}
	if endpoint := strings.TrimSpace(cfg.APIEndpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "youtube client", "", err)
	}
	return &YouTubeInserter{service: service}, nil
}

// InsertVideo implements Inserter with a resumable upload.
func (y *YouTubeInserter) InsertVideo(ctx context.Context, video *youtube.Video, media io.Reader, size int64, progress func(current, total int64)) (string, error) {
	call := y.service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(media, googleapi.ContentType("video/mp4"), googleapi.ChunkSize(googleapi.DefaultUploadChunkSize)).
		Context(ctx)
	if progress != nil {
		call = call.ProgressUpdater(func(current, _ int64) { progress(current, size) })
	}
	resp, err := call.Do()
	if err != nil {
		return "", err
	}
	return resp.Id, nil
}

// SetThumbnail implements Inserter.
func (y *YouTubeInserter) SetThumbnail(ctx context.Context, videoID string, media io.Reader) error {
	_, err := y.service.Thumbnails.Set(videoID).Media(media).Context(ctx).Do()
	return err
}

// Uploader publishes videos through an Inserter, retrying transient server
// errors with exponential backoff.
type Uploader struct {
	inserter   Inserter
	categoryID string
	privacy    string
	retries    int
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
	progress   io.Writer
}

// Option customizes an Uploader.
type Option func(*Uploader)

// WithSleeper replaces the backoff sleep.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(u *Uploader) {
		if sleep != nil {
			u.sleep = sleep
		}
	}
}

// WithProgress renders an upload progress bar to w. A nil writer disables it.
func WithProgress(w io.Writer) Option {
	return func(u *Uploader) { u.progress = w }
}

// New builds an Uploader. The progress bar goes to stderr when it is a
// terminal.
func New(inserter Inserter, cfg config.YouTube, logger *slog.Logger, opts ...Option) *Uploader {
	u := &Uploader{
		inserter:   inserter,
		categoryID: cfg.CategoryID,
		privacy:    cfg.PrivacyStatus,
		retries:    cfg.UploadRetries,
		logger:     logging.NewComponentLogger(logger, "publish"),
		sleep:      sleepContext,
	}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		u.progress = os.Stderr
	}
	if u.categoryID == "" {
		u.categoryID = "24"
	}
	if u.privacy == "" {
		u.privacy = "public"
	}
	if u.retries < 0 {
		u.retries = 0
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Publish uploads videoPath with meta, then sets the thumbnail when one is
// given. A thumbnail failure is logged and does not fail the publish.
func (u *Uploader) Publish(ctx context.Context, videoPath, thumbnailPath string, meta Metadata) (string, error) {
	info, err := os.Stat(videoPath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "publish", "stat video", videoPath, err)
	}
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        tags,
			CategoryId:  u.categoryID,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: u.privacy},
	}

	remoteID, err := u.insertWithRetry(ctx, videoPath, info.Size(), video)
	if err != nil {
		return "", err
	}
	u.logger.Info("video uploaded",
		logging.String("remote_id", remoteID),
		logging.String("file", filepath.Base(videoPath)),
		logging.Int64("bytes", info.Size()),
		logging.String(logging.FieldEventType, "upload_complete"),
	)

	if strings.TrimSpace(thumbnailPath) != "" {
		if err := u.setThumbnail(ctx, remoteID, thumbnailPath); err != nil {
			logging.WarnWithContext(u.logger, "thumbnail upload failed", "thumbnail_failed",
				logging.String("remote_id", remoteID),
				logging.String("file", filepath.Base(thumbnailPath)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "video published with the platform default thumbnail"),
			)
		}
	}
	return remoteID, nil
}

func (u *Uploader) insertWithRetry(ctx context.Context, videoPath string, size int64, video *youtube.Video) (string, error) {
	for attempt := 0; ; attempt++ {
		remoteID, err := u.insertOnce(ctx, videoPath, size, video)
		if err == nil {
			return remoteID, nil
		}
		if !isServerError(err) {
			return "", classifyUploadError(err)
		}
		if attempt >= u.retries {
			return "", services.Wrap(services.ErrTransient, "publish", "videos.insert",
				fmt.Sprintf("failed after %d retries", u.retries), err)
		}
		delay := time.Duration(1<<(attempt+1)) * time.Second
		logging.WarnWithContext(u.logger, "upload server error; retrying", "upload_retry",
			logging.Int("retry", attempt+1),
			logging.Duration("backoff", delay),
			logging.Error(err),
		)
		if err := u.sleep(ctx, delay); err != nil {
			return "", services.Wrap(services.ErrTimeout, "publish", "videos.insert", "interrupted during backoff", err)
		}
	}
}

func (u *Uploader) insertOnce(ctx context.Context, videoPath string, size int64, video *youtube.Video) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "publish", "open video", videoPath, err)
	}
	defer file.Close()

	var progress func(current, total int64)
	if u.progress != nil {
		bar := progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(u.progress),
			progressbar.OptionSetDescription("subiendo "+filepath.Base(videoPath)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		progress = func(current, _ int64) { _ = bar.Set64(current) }
	}
	return u.inserter.InsertVideo(ctx, video, file, size, progress)
}

func (u *Uploader) setThumbnail(ctx context.Context, remoteID, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return u.inserter.SetThumbnail(ctx, remoteID, file)
}

func isServerError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func classifyUploadError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "publish", "videos.insert", "credentials rejected", err)
		case apiErr.Code == http.StatusTooManyRequests:
			return services.Wrap(services.ErrTransient, "publish", "videos.insert", "quota exceeded", err)
		default:
			return services.Wrap(services.ErrValidation, "publish", "videos.insert", "", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrTimeout, "publish", "videos.insert", "", err)
	}
	return services.Wrap(services.ErrTransient, "publish", "videos.insert", "", err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
