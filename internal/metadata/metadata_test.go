package metadata_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"

	"reelpipe/internal/config"
	"reelpipe/internal/logging"
	"reelpipe/internal/metadata"
	"reelpipe/internal/services"
)

func newYouTubeSource(t *testing.T, handler http.HandlerFunc) *metadata.YouTubeSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.Default().YouTube
	cfg.APIKey = "test-key"
	cfg.APIEndpoint = srv.URL + "/"
	src, err := metadata.NewYouTubeSource(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewYouTubeSource failed: %v", err)
	}
	return src
}

func TestYouTubeSourceFetch(t *testing.T) {
	var gotKey, gotID, gotPath string
	src := newYouTubeSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotID = r.URL.Query().Get("id")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{"id":"abc123","snippet":{"title":"MERLINA | Tráiler oficial","description":"Llega a Netflix","tags":["merlina","netflix"],"channelTitle":"Netflix Latinoamérica"}}]}`)
	})

	video, err := src.Fetch(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotPath != "/youtube/v3/videos" || gotKey != "test-key" || gotID != "abc123" {
		t.Fatalf("unexpected request path=%q key=%q id=%q", gotPath, gotKey, gotID)
	}
	if video.Title != "MERLINA | Tráiler oficial" || video.ChannelTitle != "Netflix Latinoamérica" {
		t.Fatalf("unexpected video %+v", video)
	}
	if !slices.Equal(video.Tags, []string{"merlina", "netflix"}) {
		t.Fatalf("unexpected tags %v", video.Tags)
	}
}

func TestYouTubeSourceUnknownVideo(t *testing.T) {
	src := newYouTubeSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[]}`)
	})
	_, err := src.Fetch(context.Background(), "gone")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestYouTubeSourceMissingTagsDefaultsEmpty(t *testing.T) {
	src := newYouTubeSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"id":"x1","snippet":{"title":"T","description":"D","channelTitle":"C"}}]}`)
	})
	video, err := src.Fetch(context.Background(), "x1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if video.Tags == nil || len(video.Tags) != 0 {
		t.Fatalf("expected empty non-nil tags, got %#v", video.Tags)
	}
}

func TestYouTubeSourceBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	src := newYouTubeSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"forbidden"}}`)
	})

	for i := 0; i < 5; i++ {
		_, err := src.Fetch(context.Background(), "v")
		if !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("call %d: expected configuration error, got %v", i+1, err)
		}
	}
	_, err := src.Fetch(context.Background(), "v")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected open circuit to surface as transient, got %v", err)
	}
	if got := calls.Load(); got != 5 {
		t.Fatalf("expected 5 upstream calls, got %d", got)
	}
}

func TestNewYouTubeSourceRequiresKey(t *testing.T) {
	_, err := metadata.NewYouTubeSource(context.Background(), config.Default().YouTube, logging.NewNop())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

const watchPage = `<!DOCTYPE html>
<html><head>
<title>MERLINA | Tráiler oficial | Netflix - YouTube</title>
<meta name="description" content="Resumen corto">
<link itemprop="name" content="Canal Itemprop">
</head><body>
<script>var ytInitialData = {"ownerText":{"runs":[{"text":"Netflix Latinoamérica"}]},"shortDescription":"Primera línea\nSegunda línea"};</script>
</body></html>`

func TestParsePage(t *testing.T) {
	page, err := metadata.ParsePage([]byte(watchPage))
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}
	if page.Title != "MERLINA | Tráiler oficial | Netflix" {
		t.Fatalf("unexpected title %q", page.Title)
	}
	if page.Channel != "Netflix Latinoamérica" {
		t.Fatalf("unexpected channel %q", page.Channel)
	}
	if page.Description != "Primera línea\nSegunda línea" {
		t.Fatalf("unexpected description %q", page.Description)
	}
	if !slices.Equal(page.Tags, []string{"oficial", "trailer", "netflix"}) {
		t.Fatalf("unexpected tags %v", page.Tags)
	}
}

func TestParsePageFallsBackToMarkup(t *testing.T) {
	body := `<html><head><title>Otro video - YouTube</title>
<meta name="description" content="Resumen corto">
<link itemprop="name" content="Canal Itemprop"></head><body></body></html>`
	page, err := metadata.ParsePage([]byte(body))
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}
	if page.Title != "Otro video" || page.Channel != "Canal Itemprop" || page.Description != "Resumen corto" {
		t.Fatalf("unexpected page %+v", page)
	}
	if len(page.Tags) != 0 {
		t.Fatalf("expected no keyword tags, got %v", page.Tags)
	}
}

func TestScraperSendsUserAgent(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		fmt.Fprint(w, watchPage)
	}))
	defer srv.Close()

	page, err := metadata.NewScraper(nil).Scrape(context.Background(), srv.URL+"/watch?v=abc123")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if agent == "" || agent == "Go-http-client/1.1" {
		t.Fatalf("expected browser user agent, got %q", agent)
	}
	if page.Channel != "Netflix Latinoamérica" {
		t.Fatalf("unexpected channel %q", page.Channel)
	}
}

func TestScraperNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := metadata.NewScraper(srv.Client()).Scrape(context.Background(), srv.URL+"/watch?v=x")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
