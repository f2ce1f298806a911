package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"reelpipe/internal/approval"
	"reelpipe/internal/config"
	"reelpipe/internal/discovery"
	"reelpipe/internal/editor"
	"reelpipe/internal/ledger"
	"reelpipe/internal/logging"
	"reelpipe/internal/metadata"
	"reelpipe/internal/notifications"
	"reelpipe/internal/publish"
	"reelpipe/internal/rewrite"
	"reelpipe/internal/services/llm"
)

// PageScraper recovers metadata from a public watch page.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) (metadata.Page, error)
}

// VideoEditor transforms one video file in place.
type VideoEditor interface {
	Edit(ctx context.Context, videoPath string) (editor.Result, error)
}

// URLResolver resolves a video URL supplied by hand.
type URLResolver interface {
	Lookup(ctx context.Context, rawURL string) (discovery.Entry, error)
}

// Env carries the collaborators stage runners work against. Nil
// collaborators disable the feature that needs them.
type Env struct {
	Config   *config.Config
	Store    *ledger.Store
	Logger   *slog.Logger
	Notifier notifications.Service

	Feeds    discovery.Source
	Videos   metadata.Fetcher
	Scraper  PageScraper
	Editor   VideoEditor
	Rewriter rewrite.Rewriter
	Resolver URLResolver
	Gate     *approval.Gate

	// NewPublisher is called once per publish run that has items to offer.
	NewPublisher func(ctx context.Context) (publish.Publisher, error)
}

// NewEnv wires the production collaborators from cfg. The YouTube Data API
// source is only built when an API key is configured; the LLM rewriter only
// when an LLM key is configured.
func NewEnv(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Env, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := notifications.NewService(cfg, logger)
	env := &Env{
		Config:   cfg,
		Store:    ledger.NewStore(cfg.Paths.LedgerFile),
		Logger:   logger,
		Notifier: notifier,
		Feeds:    discovery.NewFeedSource(cfg.Discovery, logger),
		Scraper:  metadata.NewScraper(nil),
		Editor:   editor.New(cfg, logger),
		Resolver: discovery.NewYTDLP(cfg.YTDLPBinary()),
		Gate:     approval.New(ApprovalSettings(cfg.Approval), notifier, approval.WithLogger(logging.NewComponentLogger(logger, "approval"))),
	}

	if strings.TrimSpace(cfg.YouTube.APIKey) != "" {
		src, err := metadata.NewYouTubeSource(ctx, cfg.YouTube, logger)
		if err != nil {
			return nil, err
		}
		env.Videos = src
	}

	if strings.TrimSpace(cfg.LLM.APIKey) != "" {
		env.Rewriter = rewrite.New(llm.NewClient(llm.ConfigFrom(cfg.LLM)), logger)
	} else {
		env.Rewriter = rewrite.New(nil, logger)
	}

	env.NewPublisher = func(ctx context.Context) (publish.Publisher, error) {
		inserter, err := publish.NewYouTubeInserter(ctx, cfg.YouTube)
		if err != nil {
			return nil, err
		}
		return publish.New(inserter, cfg.YouTube, logger), nil
	}
	return env, nil
}

// ApprovalSettings converts the [approval] section.
func ApprovalSettings(cfg config.Approval) approval.Settings {
	return approval.Settings{
		PerItem:      time.Duration(cfg.PerItemTimeout) * time.Second,
		MaxWait:      time.Duration(cfg.MaxWait) * time.Second,
		PollInterval: time.Duration(cfg.PollInterval) * time.Second,
	}
}

func (e *Env) logger(component string) *slog.Logger {
	return logging.NewComponentLogger(e.Logger, component)
}

func (e *Env) notify(ctx context.Context, logger *slog.Logger, text string) {
	if e.Notifier == nil {
		return
	}
	if err := e.Notifier.Notify(ctx, text); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "operator not informed"),
		)
	}
}
