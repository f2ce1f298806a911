package publish_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"reelpipe/internal/config"
	"reelpipe/internal/logging"
	"reelpipe/internal/publish"
	"reelpipe/internal/services"
	"reelpipe/internal/testsupport"
)

type fakeInserter struct {
	insertErrs   []error
	insertCalls  int
	lastVideo    *youtube.Video
	uploaded     []byte
	thumbErr     error
	thumbCalls   int
	thumbVideoID string
}

func (f *fakeInserter) InsertVideo(_ context.Context, video *youtube.Video, media io.Reader, _ int64, _ func(int64, int64)) (string, error) {
	f.insertCalls++
	f.lastVideo = video
	data, err := io.ReadAll(media)
	if err != nil {
		return "", err
	}
	f.uploaded = data
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return "yt-remote-1", nil
}

func (f *fakeInserter) SetThumbnail(_ context.Context, videoID string, _ io.Reader) error {
	f.thumbCalls++
	f.thumbVideoID = videoID
	return f.thumbErr
}

func newUploader(t *testing.T, inserter publish.Inserter) (*publish.Uploader, *[]time.Duration) {
	t.Helper()
	var sleeps []time.Duration
	u := publish.New(inserter, config.Default().YouTube, logging.NewNop(),
		publish.WithProgress(nil),
		publish.WithSleeper(func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		}),
	)
	return u, &sleeps
}

func assets(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	video := filepath.Join(dir, "merlina.mp4")
	thumb := filepath.Join(dir, "merlina.jpg")
	testsupport.WriteFile(t, video, 64)
	testsupport.WriteFile(t, thumb, 8)
	return video, thumb
}

func TestPublishSetsSnippetAndThumbnail(t *testing.T) {
	video, thumb := assets(t)
	fake := &fakeInserter{}
	u, sleeps := newUploader(t, fake)

	id, err := u.Publish(context.Background(), video, thumb, publish.Metadata{Title: "Merlina", Description: "Tráiler", Tags: []string{"netflix"}})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if id != "yt-remote-1" {
		t.Fatalf("unexpected remote id %q", id)
	}
	snippet := fake.lastVideo.Snippet
	if snippet.CategoryId != "24" || snippet.Title != "Merlina" || !slices.Equal(snippet.Tags, []string{"netflix"}) {
		t.Fatalf("unexpected snippet %+v", snippet)
	}
	if fake.lastVideo.Status.PrivacyStatus != "public" {
		t.Fatalf("unexpected privacy %q", fake.lastVideo.Status.PrivacyStatus)
	}
	if len(fake.uploaded) != 64 {
		t.Fatalf("expected full file uploaded, got %d bytes", len(fake.uploaded))
	}
	if fake.thumbCalls != 1 || fake.thumbVideoID != "yt-remote-1" {
		t.Fatalf("expected thumbnail set on remote id, got calls=%d id=%q", fake.thumbCalls, fake.thumbVideoID)
	}
	if len(*sleeps) != 0 {
		t.Fatalf("expected no backoff, got %v", *sleeps)
	}
}

func TestPublishRetriesServerErrorsWithBackoff(t *testing.T) {
	video, _ := assets(t)
	fake := &fakeInserter{insertErrs: []error{
		&googleapi.Error{Code: 503},
		&googleapi.Error{Code: 500},
	}}
	u, sleeps := newUploader(t, fake)

	id, err := u.Publish(context.Background(), video, "", publish.Metadata{Title: "Merlina"})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if id != "yt-remote-1" || fake.insertCalls != 3 {
		t.Fatalf("unexpected result id=%q calls=%d", id, fake.insertCalls)
	}
	if !slices.Equal(*sleeps, []time.Duration{2 * time.Second, 4 * time.Second}) {
		t.Fatalf("unexpected backoff %v", *sleeps)
	}
	if fake.thumbCalls != 0 {
		t.Fatal("expected no thumbnail call without a thumbnail")
	}
}

func TestPublishGivesUpAfterRetries(t *testing.T) {
	video, _ := assets(t)
	errs := make([]error, 4)
	for i := range errs {
		errs[i] = &googleapi.Error{Code: 502}
	}
	fake := &fakeInserter{insertErrs: errs}
	u, sleeps := newUploader(t, fake)

	_, err := u.Publish(context.Background(), video, "", publish.Metadata{Title: "Merlina"})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if fake.insertCalls != 4 {
		t.Fatalf("expected 1 attempt plus 3 retries, got %d", fake.insertCalls)
	}
	if !slices.Equal(*sleeps, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}) {
		t.Fatalf("unexpected backoff %v", *sleeps)
	}
}

func TestPublishClientErrorIsNotRetried(t *testing.T) {
	video, _ := assets(t)
	fake := &fakeInserter{insertErrs: []error{&googleapi.Error{Code: 400}}}
	u, sleeps := newUploader(t, fake)

	_, err := u.Publish(context.Background(), video, "", publish.Metadata{Title: "Merlina"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fake.insertCalls != 1 || len(*sleeps) != 0 {
		t.Fatalf("expected a single attempt, got calls=%d sleeps=%v", fake.insertCalls, *sleeps)
	}
}

func TestPublishThumbnailFailureIsNotFatal(t *testing.T) {
	video, thumb := assets(t)
	fake := &fakeInserter{thumbErr: errors.New("thumbnail rejected")}
	u, _ := newUploader(t, fake)

	id, err := u.Publish(context.Background(), video, thumb, publish.Metadata{Title: "Merlina"})
	if err != nil {
		t.Fatalf("expected publish to succeed, got %v", err)
	}
	if id != "yt-remote-1" || fake.thumbCalls != 1 {
		t.Fatalf("unexpected result id=%q thumbCalls=%d", id, fake.thumbCalls)
	}
}

func TestPublishMissingVideo(t *testing.T) {
	fake := &fakeInserter{}
	u, _ := newUploader(t, fake)
	_, err := u.Publish(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), "", publish.Metadata{})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if fake.insertCalls != 0 {
		t.Fatal("expected no upload attempt")
	}
}

func TestTokenRoundTripAndMissingToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if _, err := publish.LoadToken(path); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing token, got %v", err)
	}
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}
	if err := publish.SaveToken(path, tok); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	got, err := publish.LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if got.AccessToken != "access" || got.RefreshToken != "refresh" {
		t.Fatalf("unexpected token %+v", got)
	}
}

func TestOAuthConfigRequiresSecrets(t *testing.T) {
	if _, err := publish.OAuthConfig(""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "client_secrets.json")
	secrets := `{"installed":{"client_id":"cid","client_secret":"sec","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	if err := os.WriteFile(path, []byte(secrets), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := publish.OAuthConfig(path)
	if err != nil {
		t.Fatalf("OAuthConfig failed: %v", err)
	}
	if cfg.ClientID != "cid" || !slices.Contains(cfg.Scopes, youtube.YoutubeUploadScope) {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
