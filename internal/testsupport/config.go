package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelpipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The asset directories are created; the complement clip is not.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LedgerFile = filepath.Join(base, "data.json")
	cfgVal.Paths.VideosDir = filepath.Join(base, "videos")
	cfgVal.Paths.UploadableDir = filepath.Join(base, "uploadable")
	cfgVal.Paths.ComplementClip = filepath.Join(base, "complement.mp4")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Approval.PerItemTimeout = 1
	cfgVal.Approval.MaxWait = 10
	cfgVal.Approval.PollInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithTelegram points the Telegram settings at endpoint, a format string of
// the form "<server>/bot%s/%s".
func WithTelegram(endpoint string, chatID int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Telegram.BotToken = "TOKEN"
		b.cfg.Telegram.ChatID = chatID
		b.cfg.Telegram.APIEndpoint = endpoint
		b.cfg.Telegram.MessagesPerSecond = 1000
	}
}

// WithComplementClip writes a placeholder complement clip.
func WithComplementClip() ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Paths.ComplementClip, 16)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg, ffprobe and yt-dlp are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "yt-dlp"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			WriteScript(b.t, filepath.Join(binDir, name), "exit 0")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LedgerFile)
}
