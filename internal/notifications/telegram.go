package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"reelpipe/internal/approval"
	"reelpipe/internal/config"
	"reelpipe/internal/logging"
	"reelpipe/internal/services"
)

const (
	maxMessageRunes = 4096
	maxCaptionRunes = 1024
)

type telegramService struct {
	token    string
	chatID   int64
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger

	mu     sync.Mutex
	bot    *tgbotapi.BotAPI
	offset int
}

func newTelegramService(cfg config.Telegram, logger *slog.Logger) *telegramService {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	perSecond := cfg.MessagesPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	endpoint := strings.TrimSpace(cfg.APIEndpoint)
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &telegramService{
		token:    cfg.BotToken,
		chatID:   cfg.ChatID,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:   logger,
	}
}

// api connects on first use; getMe is retried on the next call after a failure.
func (t *telegramService) api() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "notifications", "connect", "telegram getMe failed", err)
	}
	t.bot = bot
	return bot, nil
}

func (t *telegramService) Notify(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, TruncateRunes(text, maxMessageRunes))
	msg.ParseMode = tgbotapi.ModeHTML
	err := t.send(ctx, "sendMessage", msg)
	if isParseError(err) {
		t.logger.Debug("retrying telegram message without HTML", logging.Error(err))
		msg.ParseMode = ""
		err = t.send(ctx, "sendMessage", msg)
	}
	return err
}

func (t *telegramService) NotifyWithImage(ctx context.Context, imagePath, caption string) error {
	info, err := os.Stat(imagePath)
	if err != nil || info.IsDir() {
		return services.Wrap(services.ErrNotFound, "notifications", "sendPhoto", "image not readable: "+imagePath, err)
	}
	photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FilePath(imagePath))
	photo.Caption = TruncateRunes(strings.TrimSpace(caption), maxCaptionRunes)
	photo.ParseMode = tgbotapi.ModeHTML
	return t.send(ctx, "sendPhoto", photo)
}

func (t *telegramService) Poll(ctx context.Context) ([]approval.Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bot, err := t.api()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	cfg := tgbotapi.NewUpdate(t.offset)
	t.mu.Unlock()
	cfg.Timeout = 0

	updates, err := bot.GetUpdates(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "notifications", "getUpdates", "poll failed", err)
	}

	out := make([]approval.Update, 0, len(updates))
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, update := range updates {
		if update.UpdateID >= t.offset {
			t.offset = update.UpdateID + 1
		}
		if update.Message == nil {
			continue
		}
		if update.Message.Chat != nil && update.Message.Chat.ID != t.chatID {
			t.logger.Debug("ignoring message from foreign chat", logging.Int64("chat_id", update.Message.Chat.ID))
			continue
		}
		out = append(out, approval.Update{ID: update.UpdateID, Text: strings.TrimSpace(update.Message.Text)})
	}
	return out, nil
}

func (t *telegramService) TestNotification(ctx context.Context) error {
	return t.Notify(ctx, TestMessage())
}

func (t *telegramService) send(ctx context.Context, method string, c tgbotapi.Chattable) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	bot, err := t.api()
	if err != nil {
		return err
	}
	if _, err := bot.Send(c); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			return services.Wrap(services.ErrValidation, "notifications", method,
				fmt.Sprintf("telegram rejected request (%d)", apiErr.Code), err)
		}
		return services.Wrap(services.ErrTransient, "notifications", method, "telegram request failed", err)
	}
	return nil
}

func isParseError(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "parse")
}
