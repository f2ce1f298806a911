package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"reelpipe/internal/services"
)

// ManualLookupTimeout bounds a single yt-dlp metadata dump.
const ManualLookupTimeout = 30 * time.Second

// IDFromURL derives a video id from a user-supplied URL: the text after the
// last "=" for watch links, otherwise the last path segment.
func IDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "watch?v=") {
		return VideoIDFromLink(raw)
	}
	raw = strings.TrimRight(raw, "/")
	if idx := strings.LastIndex(raw, "/"); idx >= 0 {
		raw = raw[idx+1:]
	}
	if idx := strings.IndexAny(raw, "?#"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

// WatchURL returns the canonical watch link for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

type ytdlpInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Uploader   string `json:"uploader"`
	ChannelID  string `json:"channel_id"`
	UploadDate string `json:"upload_date"`
}

// YTDLP resolves a single video's metadata with `yt-dlp --dump-json`.
type YTDLP struct {
	binary  string
	timeout time.Duration
	now     func() time.Time
}

// NewYTDLP returns a resolver invoking binary ("yt-dlp" when empty).
func NewYTDLP(binary string) *YTDLP {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	return &YTDLP{binary: binary, timeout: ManualLookupTimeout, now: time.Now}
}

// Binary returns the executable name used for lookups.
func (y *YTDLP) Binary() string {
	return y.binary
}

// Lookup fetches metadata for rawURL without downloading media.
func (y *YTDLP) Lookup(ctx context.Context, rawURL string) (Entry, error) {
	id := IDFromURL(rawURL)
	if id == "" {
		return Entry{}, services.Wrap(services.ErrValidation, "add", "parse url", rawURL, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, y.binary, "--dump-json", "--no-download", rawURL) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Entry{}, services.Wrap(services.ErrTimeout, "add", "yt-dlp", fmt.Sprintf("no answer after %s", y.timeout), err)
		}
		return Entry{}, services.Wrap(services.ErrExternalTool, "add", "yt-dlp", strings.TrimSpace(stderr.String()), err)
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return Entry{}, services.Wrap(services.ErrValidation, "add", "decode yt-dlp output", rawURL, err)
	}
	if strings.TrimSpace(info.Title) == "" {
		return Entry{}, services.Wrap(services.ErrValidation, "add", "decode yt-dlp output", "missing title", nil)
	}
	published := strings.TrimSpace(info.UploadDate)
	if published == "" {
		published = y.now().Format("20060102")
	}
	return Entry{
		VideoID:   id,
		URL:       WatchURL(id),
		Title:     strings.TrimSpace(info.Title),
		Channel:   strings.TrimSpace(info.Uploader),
		ChannelID: strings.TrimSpace(info.ChannelID),
		Published: published,
	}, nil
}
