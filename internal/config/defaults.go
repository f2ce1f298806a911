package config

const (
	defaultLedgerFile           = "~/.local/share/reelpipe/data.json"
	defaultVideosDir            = "~/.local/share/reelpipe/videos"
	defaultUploadableDir        = "~/.local/share/reelpipe/uploadable"
	defaultComplementClip       = "~/.local/share/reelpipe/complement.mp4"
	defaultLogDir               = "~/.local/share/reelpipe/logs"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultFeedURL              = "https://www.youtube.com/feeds/videos.xml"
	defaultMaxEntries           = 20
	defaultDiscoveryTimeout     = 15
	defaultDiscoveryRate        = 1.0
	defaultYouTubeTokenFile     = "~/.config/reelpipe/youtube_token.json"
	defaultYouTubeSecrets       = "~/.config/reelpipe/client_secrets.json"
	defaultCategoryID           = "24"
	defaultPrivacyStatus        = "public"
	defaultUploadRetries        = 3
	defaultMetadataCategory     = "Entertainment"
	defaultYouTubeTimeout       = 30
	defaultTelegramEndpoint     = "https://api.telegram.org/bot%s/%s"
	defaultTelegramTimeout      = 10
	defaultTelegramRate         = 1.0
	defaultLLMProvider          = "anthropic"
	defaultAnthropicBaseURL     = "https://api.anthropic.com/v1/messages"
	defaultOpenRouterBaseURL    = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "claude-3-5-sonnet-20241022"
	defaultLLMMaxTokens         = 1500
	defaultLLMTimeoutSeconds    = 60
	defaultLLMReferer           = "https://github.com/reelpipe/reelpipe"
	defaultLLMTitle             = "reelpipe metadata rewrite"
	defaultEditChannel          = "Netflix Latinoamérica"
	defaultTrimSeconds          = 12
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultYTDLPBinary          = "yt-dlp"
	defaultVideoCodec           = "libx264"
	defaultAudioCodec           = "aac"
	defaultPreset               = "fast"
	defaultCRF                  = 23
	defaultFrameRate            = 30
	defaultAudioSampleRate      = 48000
	defaultAudioChannels        = 2
	defaultApprovalPerItem      = 300
	defaultApprovalMaxWait      = 1800
	defaultApprovalPollInterval = 5
	defaultRetentionPerChannel  = 11
	defaultMaxExamples          = 10
	defaultTitleWidth           = 50
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LedgerFile:     defaultLedgerFile,
			VideosDir:      defaultVideosDir,
			UploadableDir:  defaultUploadableDir,
			ComplementClip: defaultComplementClip,
			LogDir:         defaultLogDir,
		},
		Discovery: Discovery{
			MaxEntries:        defaultMaxEntries,
			FeedURL:           defaultFeedURL,
			RequestTimeout:    defaultDiscoveryTimeout,
			RequestsPerSecond: defaultDiscoveryRate,
		},
		YouTube: YouTube{
			ClientSecretsFile: defaultYouTubeSecrets,
			TokenFile:         defaultYouTubeTokenFile,
			CategoryID:        defaultCategoryID,
			PrivacyStatus:     defaultPrivacyStatus,
			UploadRetries:     defaultUploadRetries,
			MetadataCategory:  defaultMetadataCategory,
			RequestTimeout:    defaultYouTubeTimeout,
		},
		Telegram: Telegram{
			APIEndpoint:       defaultTelegramEndpoint,
			RequestTimeout:    defaultTelegramTimeout,
			MessagesPerSecond: defaultTelegramRate,
		},
		LLM: LLM{
			Provider:       defaultLLMProvider,
			Model:          defaultLLMModel,
			MaxTokens:      defaultLLMMaxTokens,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Edit: Edit{
			Channel:         defaultEditChannel,
			TrimSeconds:     defaultTrimSeconds,
			FFmpegBinary:    defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			VideoCodec:      defaultVideoCodec,
			AudioCodec:      defaultAudioCodec,
			Preset:          defaultPreset,
			CRF:             defaultCRF,
			FrameRate:       defaultFrameRate,
			AudioSampleRate: defaultAudioSampleRate,
			AudioChannels:   defaultAudioChannels,
		},
		Approval: Approval{
			PerItemTimeout: defaultApprovalPerItem,
			MaxWait:        defaultApprovalMaxWait,
			PollInterval:   defaultApprovalPollInterval,
		},
		Retention: Retention{
			PerChannel: defaultRetentionPerChannel,
			DropShorts: true,
		},
		Notifications: Notifications{
			MaxExamples: defaultMaxExamples,
			TitleWidth:  defaultTitleWidth,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
