package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateEdit(); err != nil {
		return err
	}
	if err := c.validateApproval(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LedgerFile) == "" {
		return errors.New("paths.ledger_file must be set")
	}
	if strings.TrimSpace(c.Paths.VideosDir) == "" {
		return errors.New("paths.videos_dir must be set")
	}
	if strings.TrimSpace(c.Paths.UploadableDir) == "" {
		return errors.New("paths.uploadable_dir must be set")
	}
	if c.Paths.VideosDir == c.Paths.UploadableDir {
		return errors.New("paths.uploadable_dir must differ from paths.videos_dir")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"discovery.request_timeout": c.Discovery.RequestTimeout,
		"youtube.request_timeout":   c.YouTube.RequestTimeout,
		"telegram.request_timeout":  c.Telegram.RequestTimeout,
		"llm.timeout_seconds":       c.LLM.TimeoutSeconds,
	})
}

func (c *Config) validateYouTube() error {
	switch c.YouTube.PrivacyStatus {
	case "public", "unlisted", "private":
	default:
		return fmt.Errorf("youtube.privacy_status must be public, unlisted, or private (got %q)", c.YouTube.PrivacyStatus)
	}
	if c.YouTube.UploadRetries < 0 {
		return errors.New("youtube.upload_retries must be >= 0")
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case "anthropic", "openrouter", "openai":
	default:
		return fmt.Errorf("llm.provider must be anthropic, openrouter, or openai (got %q)", c.LLM.Provider)
	}
	return nil
}

func (c *Config) validateEdit() error {
	if c.Edit.TrimSeconds < 0 {
		return errors.New("edit.trim_seconds must be >= 0")
	}
	if c.Edit.CRF < 0 || c.Edit.CRF > 51 {
		return errors.New("edit.crf must be between 0 and 51")
	}
	return ensurePositiveMap(map[string]int{
		"edit.frame_rate":        c.Edit.FrameRate,
		"edit.audio_sample_rate": c.Edit.AudioSampleRate,
		"edit.audio_channels":    c.Edit.AudioChannels,
	})
}

func (c *Config) validateApproval() error {
	if err := ensurePositiveMap(map[string]int{
		"approval.per_item_timeout": c.Approval.PerItemTimeout,
		"approval.max_wait":         c.Approval.MaxWait,
		"approval.poll_interval":    c.Approval.PollInterval,
	}); err != nil {
		return err
	}
	if c.Approval.PollInterval > c.Approval.MaxWait {
		return errors.New("approval.poll_interval must not exceed approval.max_wait")
	}
	return nil
}

func (c *Config) validateRetention() error {
	if c.Retention.PerChannel < 1 {
		return errors.New("retention.per_channel must be >= 1")
	}
	if c.Notifications.MaxExamples < 0 {
		return errors.New("notifications.max_examples must be >= 0")
	}
	if c.Notifications.TitleWidth < 4 {
		return errors.New("notifications.title_width must be >= 4")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
