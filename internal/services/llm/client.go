package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"reelpipe/internal/config"
)

// Supported providers.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultMaxTokens   = 1500
)

// Config holds what the client needs to reach one provider.
type Config struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Referer        string
	Title          string
	TimeoutSeconds int
}

// ConfigFrom maps the [llm] section.
func ConfigFrom(cfg config.LLM) Config {
	return Config(cfg)
}

// Client sends single-turn completions. It is safe for concurrent use.
type Client struct {
	cfg     Config
	dialect dialect
	http    *http.Client
	retry   retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts sets the total number of attempts (default 3).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first backoff delay and the cap.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.base = baseDelay
		c.retry.ceiling = maxDelay
	}
}

// WithSleeper replaces the wait between attempts.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleeper = sleeper }
}

// NewClient builds a client. Provider defaults to anthropic and BaseURL to
// the provider's public endpoint.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.Provider == "" {
		cfg.Provider = ProviderAnthropic
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	c := &Client{
		cfg:     cfg,
		dialect: dialectFor(cfg),
		http:    &http.Client{Timeout: timeout},
		retry:   defaultRetryPolicy(),
	}
	if c.cfg.BaseURL == "" {
		c.cfg.BaseURL = c.dialect.defaultURL()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Complete sends prompt as one user turn, with an optional system prompt, and
// returns the reply text.
func (c *Client) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	const op = "llm complete"
	prompt = strings.TrimSpace(prompt)
	switch {
	case prompt == "":
		return "", errors.New(op + ": prompt required")
	case !c.Configured():
		return "", errors.New(op + ": api key required")
	}
	body := c.dialect.encode(c.cfg, strings.TrimSpace(systemPrompt), prompt)
	return c.retry.run(ctx, op, func() (string, error) {
		return c.roundTrip(ctx, op, body)
	})
}

// HealthCheck sends a tiny prompt to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	reply, err := c.Complete(ctx, "", "Responde solo con la palabra OK.")
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToUpper(reply), "OK") {
		return fmt.Errorf("llm health: unexpected response %s", snippet(reply))
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op string, payload any) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.dialect.authorize(req, c.cfg)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: http error (timeout=%s): %w", op, c.http.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	text, reason, err := c.dialect.decode(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if text == "" {
		return "", &emptyContentError{Op: op, StopReason: reason, Snippet: snippet(string(raw))}
	}
	return text, nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, e.Body)
}

type emptyContentError struct {
	Op         string
	StopReason string
	Snippet    string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (stop_reason=%q, response_snippet=%s)", e.Op, e.StopReason, e.Snippet)
}

// snippet flattens whitespace and keeps the first 160 runes.
func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if r := []rune(clean); len(r) > 160 {
		return string(r[:160]) + "..."
	}
	return clean
}
