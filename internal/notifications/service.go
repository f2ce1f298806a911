package notifications

import (
	"context"
	"log/slog"

	"reelpipe/internal/approval"
	"reelpipe/internal/config"
	"reelpipe/internal/logging"
)

// Service is the chat surface used by stage runners and the approval gate.
type Service interface {
	Notify(ctx context.Context, text string) error
	NotifyWithImage(ctx context.Context, imagePath, caption string) error
	Poll(ctx context.Context) ([]approval.Update, error)
	TestNotification(ctx context.Context) error
}

// NewService builds a Telegram-backed service when a bot token and chat id
// are configured, and a noop service otherwise.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	if cfg == nil || !cfg.TelegramEnabled() {
		return noopService{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return newTelegramService(cfg.Telegram, logging.NewComponentLogger(logger, "telegram"))
}

// Enabled reports whether svc delivers messages anywhere.
func Enabled(svc Service) bool {
	if svc == nil {
		return false
	}
	_, noop := svc.(noopService)
	return !noop
}

type noopService struct{}

func (noopService) Notify(context.Context, string) error                  { return nil }
func (noopService) NotifyWithImage(context.Context, string, string) error { return nil }
func (noopService) Poll(context.Context) ([]approval.Update, error)       { return nil, nil }
func (noopService) TestNotification(context.Context) error                { return nil }
