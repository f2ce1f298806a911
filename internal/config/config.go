package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"reelpipe/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	LedgerFile     string `toml:"ledger_file"`
	VideosDir      string `toml:"videos_dir"`
	UploadableDir  string `toml:"uploadable_dir"`
	ComplementClip string `toml:"complement_clip"`
	LogDir         string `toml:"log_dir"`
	LockFile       string `toml:"lock_file"`
	MetricsFile    string `toml:"metrics_file"`
}

// Discovery contains channel feed polling settings.
type Discovery struct {
	Channels          []string `toml:"channels"`
	MaxEntries        int      `toml:"max_entries"`
	FeedURL           string   `toml:"feed_url"`
	RequestTimeout    int      `toml:"request_timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	YTDLPBinary       string   `toml:"ytdlp_binary"`
}

// YouTube contains Data API and upload settings.
type YouTube struct {
	APIKey            string `toml:"api_key"`
	APIEndpoint       string `toml:"api_endpoint"`
	ClientSecretsFile string `toml:"client_secrets_file"`
	TokenFile         string `toml:"token_file"`
	CategoryID        string `toml:"category_id"`
	PrivacyStatus     string `toml:"privacy_status"`
	UploadRetries     int    `toml:"upload_retries"`
	MetadataCategory  string `toml:"metadata_category"`
	RequestTimeout    int    `toml:"request_timeout"`
}

// Telegram contains chat notification and approval settings.
type Telegram struct {
	BotToken          string  `toml:"bot_token"`
	ChatID            int64   `toml:"chat_id"`
	APIEndpoint       string  `toml:"api_endpoint"`
	RequestTimeout    int     `toml:"request_timeout"`
	MessagesPerSecond float64 `toml:"messages_per_second"`
}

// LLM contains the metadata rewrite endpoint settings.
type LLM struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	MaxTokens      int    `toml:"max_tokens"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Edit contains transcoder settings. The encoding parameters stay fixed for
// a given config so repeated runs produce comparable output.
type Edit struct {
	Channel                  string `toml:"channel"`
	TrimSeconds              int    `toml:"trim_seconds"`
	FFmpegBinary             string `toml:"ffmpeg_binary"`
	FFprobeBinary            string `toml:"ffprobe_binary"`
	VideoCodec               string `toml:"video_codec"`
	AudioCodec               string `toml:"audio_codec"`
	Preset                   string `toml:"preset"`
	CRF                      int    `toml:"crf"`
	FrameRate                int    `toml:"frame_rate"`
	AudioSampleRate          int    `toml:"audio_sample_rate"`
	AudioChannels            int    `toml:"audio_channels"`
	PassThroughOtherChannels bool   `toml:"pass_through_other_channels"`
}

// Approval contains the human approval gate timings, in seconds.
type Approval struct {
	PerItemTimeout int `toml:"per_item_timeout"`
	MaxWait        int `toml:"max_wait"`
	PollInterval   int `toml:"poll_interval"`
}

// Promote contains asset promotion settings.
type Promote struct {
	MarkMissing bool `toml:"mark_missing"`
}

// Retention contains ledger pruning settings.
type Retention struct {
	PerChannel int  `toml:"per_channel"`
	DropShorts bool `toml:"drop_shorts"`
}

// Notifications contains summary formatting limits.
type Notifications struct {
	MaxExamples int `toml:"max_examples"`
	TitleWidth  int `toml:"title_width"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reelpipe.
//
// Configuration sections by subsystem:
//   - Paths: ledger, asset directories, complement clip, logs
//   - Discovery: monitored channels and feed polling
//   - YouTube: metadata API key and upload credentials
//   - Telegram: notifications and approval polling
//   - LLM: metadata rewrite endpoint
//   - Edit: transcoder binaries and fixed encoding parameters
//   - Approval: approval gate timings
//   - Promote, Retention: stage policies
//   - Notifications: summary limits
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Discovery     Discovery     `toml:"discovery"`
	YouTube       YouTube       `toml:"youtube"`
	Telegram      Telegram      `toml:"telegram"`
	LLM           LLM           `toml:"llm"`
	Edit          Edit          `toml:"edit"`
	Approval      Approval      `toml:"approval"`
	Promote       Promote       `toml:"promote"`
	Retention     Retention     `toml:"retention"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// Redacted returns a copy safe to print: secrets are replaced by a marker
// and an unset secret stays empty.
func (c Config) Redacted() Config {
	mask := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return ""
		}
		return "********"
	}
	c.YouTube.APIKey = mask(c.YouTube.APIKey)
	c.Telegram.BotToken = mask(c.Telegram.BotToken)
	c.LLM.APIKey = mask(c.LLM.APIKey)
	c.Discovery.Channels = append([]string(nil), c.Discovery.Channels...)
	return c
}

// DefaultConfigPath is ~/.config/reelpipe/config.toml, expanded.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelpipe/config.toml")
}

// Load reads the file at path, or the first existing default location when
// path is empty, over Default(), then normalizes and validates the result.
// It also reports the path it settled on and whether that file existed; a
// missing file means pure defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// LoadEnvFiles exports the KEY=value pairs of every existing regular file in
// paths. Variables already present in the environment keep their value.
func LoadEnvFiles(paths ...string) error {
	var found []string
	for _, path := range paths {
		if path = strings.TrimSpace(path); path == "" {
			continue
		}
		ok, err := isRegularFile(path)
		if err != nil {
			return fmt.Errorf("stat env file: %w", err)
		}
		if ok {
			found = append(found, path)
		}
	}
	if len(found) == 0 {
		return nil
	}
	if err := godotenv.Load(found...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// resolveConfigPath honours an explicit path even when it does not exist yet.
// Without one it tries the user config and then ./reelpipe.toml, and falls
// back to the user config path.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isRegularFile(expanded)
		return expanded, exists, err
	}
	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	localPath, err := expandPath("reelpipe.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if ok, _ := isRegularFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isRegularFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	}
	return !info.IsDir(), nil
}

// EnsureDirectories creates the directories every stage expects to exist.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Paths.LedgerFile),
		c.Paths.VideosDir,
		c.Paths.UploadableDir,
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used by the edit stage.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Edit.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Edit.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// YTDLPBinary returns the yt-dlp executable used for manual additions.
func (c *Config) YTDLPBinary() string {
	if bin := strings.TrimSpace(c.Discovery.YTDLPBinary); bin != "" {
		return bin
	}
	return defaultYTDLPBinary
}

// TelegramEnabled reports whether chat notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return strings.TrimSpace(c.Telegram.BotToken) != "" && c.Telegram.ChatID != 0
}

// expandPath resolves a leading "~" or "~/" against the home directory and
// makes the result absolute. The empty string is returned unchanged.
func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if rest, ok := strings.CutPrefix(p, "~"); ok && (rest == "" || rest[0] == '/' || rest[0] == '\\') {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimLeft(rest, `/\\`))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// ExpandPath applies the same expansion Load uses for configured paths.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
