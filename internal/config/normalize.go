package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDiscovery()
	if err := c.normalizeYouTube(); err != nil {
		return err
	}
	if err := c.normalizeTelegram(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeEdit()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LedgerFile, err = expandPath(c.Paths.LedgerFile); err != nil {
		return fmt.Errorf("paths.ledger_file: %w", err)
	}
	if c.Paths.VideosDir, err = expandPath(c.Paths.VideosDir); err != nil {
		return fmt.Errorf("paths.videos_dir: %w", err)
	}
	if c.Paths.UploadableDir, err = expandPath(c.Paths.UploadableDir); err != nil {
		return fmt.Errorf("paths.uploadable_dir: %w", err)
	}
	if c.Paths.ComplementClip, err = expandPath(c.Paths.ComplementClip); err != nil {
		return fmt.Errorf("paths.complement_clip: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.LockFile, err = expandPath(strings.TrimSpace(c.Paths.LockFile)); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	if c.Paths.MetricsFile, err = expandPath(strings.TrimSpace(c.Paths.MetricsFile)); err != nil {
		return fmt.Errorf("paths.metrics_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeDiscovery() {
	channels := make([]string, 0, len(c.Discovery.Channels))
	seen := make(map[string]struct{}, len(c.Discovery.Channels))
	for _, id := range c.Discovery.Channels {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		channels = append(channels, id)
	}
	c.Discovery.Channels = channels
	c.Discovery.FeedURL = strings.TrimSpace(c.Discovery.FeedURL)
	if c.Discovery.FeedURL == "" {
		c.Discovery.FeedURL = defaultFeedURL
	}
	if c.Discovery.MaxEntries <= 0 {
		c.Discovery.MaxEntries = defaultMaxEntries
	}
	if c.Discovery.RequestsPerSecond <= 0 {
		c.Discovery.RequestsPerSecond = defaultDiscoveryRate
	}
}

func (c *Config) normalizeYouTube() error {
	c.YouTube.APIKey = strings.TrimSpace(c.YouTube.APIKey)
	if c.YouTube.APIKey == "" {
		if value, ok := os.LookupEnv("YOUTUBE_API_KEY"); ok {
			c.YouTube.APIKey = strings.TrimSpace(value)
		}
	}
	c.YouTube.APIEndpoint = strings.TrimSpace(c.YouTube.APIEndpoint)
	var err error
	if c.YouTube.ClientSecretsFile, err = expandPath(c.YouTube.ClientSecretsFile); err != nil {
		return fmt.Errorf("youtube.client_secrets_file: %w", err)
	}
	if c.YouTube.TokenFile, err = expandPath(c.YouTube.TokenFile); err != nil {
		return fmt.Errorf("youtube.token_file: %w", err)
	}
	c.YouTube.CategoryID = strings.TrimSpace(c.YouTube.CategoryID)
	if c.YouTube.CategoryID == "" {
		c.YouTube.CategoryID = defaultCategoryID
	}
	c.YouTube.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.YouTube.PrivacyStatus))
	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = defaultPrivacyStatus
	}
	c.YouTube.MetadataCategory = strings.TrimSpace(c.YouTube.MetadataCategory)
	if c.YouTube.MetadataCategory == "" {
		c.YouTube.MetadataCategory = defaultMetadataCategory
	}
	return nil
}

func (c *Config) normalizeTelegram() error {
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	if c.Telegram.BotToken == "" {
		if value, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
			c.Telegram.BotToken = strings.TrimSpace(value)
		}
	}
	if c.Telegram.ChatID == 0 {
		if value, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok && strings.TrimSpace(value) != "" {
			id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
			}
			c.Telegram.ChatID = id
		}
	}
	c.Telegram.APIEndpoint = strings.TrimSpace(c.Telegram.APIEndpoint)
	if c.Telegram.APIEndpoint == "" {
		c.Telegram.APIEndpoint = defaultTelegramEndpoint
	}
	if c.Telegram.MessagesPerSecond <= 0 {
		c.Telegram.MessagesPerSecond = defaultTelegramRate
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultLLMProvider
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		switch c.LLM.Provider {
		case "openrouter", "openai":
			c.LLM.BaseURL = defaultOpenRouterBaseURL
		default:
			c.LLM.BaseURL = defaultAnthropicBaseURL
		}
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		envKeys := []string{"ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"}
		if c.LLM.Provider != "anthropic" {
			envKeys = []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY"}
		}
		for _, key := range envKeys {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
}

func (c *Config) normalizeEdit() {
	c.Edit.Channel = strings.TrimSpace(c.Edit.Channel)
	c.Edit.FFmpegBinary = strings.TrimSpace(c.Edit.FFmpegBinary)
	if c.Edit.FFmpegBinary == "" {
		c.Edit.FFmpegBinary = defaultFFmpegBinary
	}
	c.Edit.FFprobeBinary = strings.TrimSpace(c.Edit.FFprobeBinary)
	if c.Edit.FFprobeBinary == "" {
		c.Edit.FFprobeBinary = defaultFFprobeBinary
	}
	if strings.TrimSpace(c.Edit.VideoCodec) == "" {
		c.Edit.VideoCodec = defaultVideoCodec
	}
	if strings.TrimSpace(c.Edit.AudioCodec) == "" {
		c.Edit.AudioCodec = defaultAudioCodec
	}
	if strings.TrimSpace(c.Edit.Preset) == "" {
		c.Edit.Preset = defaultPreset
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
