package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

const anthropicVersion = "2023-06-01"

// dialect is one provider wire format.
type dialect interface {
	defaultURL() string
	encode(cfg Config, system, prompt string) any
	authorize(req *http.Request, cfg Config)
	// decode returns the reply text and, when it is empty, the provider's
	// reason for stopping.
	decode(body []byte) (text, reason string, err error)
}

func dialectFor(cfg Config) dialect {
	if cfg.Provider == ProviderAnthropic {
		return anthropicDialect{}
	}
	return chatDialect{}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}

func (e *apiError) err() error {
	if e == nil {
		return nil
	}
	return fmt.Errorf("api error: %s", strings.TrimSpace(e.Message))
}

// anthropicDialect speaks the messages API.
type anthropicDialect struct{}

func (anthropicDialect) defaultURL() string { return "https://api.anthropic.com/v1/messages" }

func (anthropicDialect) encode(cfg Config, system, prompt string) any {
	return struct {
		Model     string    `json:"model"`
		MaxTokens int       `json:"max_tokens"`
		System    string    `json:"system,omitempty"`
		Messages  []message `json:"messages"`
	}{cfg.Model, cfg.MaxTokens, system, []message{{Role: "user", Content: prompt}}}
}

func (anthropicDialect) authorize(req *http.Request, cfg Config) {
	req.Header.Set("x-api-key", cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

func (anthropicDialect) decode(body []byte) (string, string, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string    `json:"stop_reason"`
		Error      *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", fmt.Errorf("decode response: %w", err)
	}
	if err := resp.Error.err(); err != nil {
		return "", "", err
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(text.String()), resp.StopReason, nil
}

// chatDialect speaks OpenAI-compatible chat completions, including
// OpenRouter's attribution headers.
type chatDialect struct{}

func (chatDialect) defaultURL() string { return "https://openrouter.ai/api/v1/chat/completions" }

func (chatDialect) encode(cfg Config, system, prompt string) any {
	messages := make([]message, 0, 2)
	if system != "" {
		messages = append(messages, message{Role: "system", Content: system})
	}
	messages = append(messages, message{Role: "user", Content: prompt})
	return struct {
		Model     string    `json:"model"`
		MaxTokens int       `json:"max_tokens,omitempty"`
		Messages  []message `json:"messages"`
	}{cfg.Model, cfg.MaxTokens, messages}
}

func (chatDialect) authorize(req *http.Request, cfg Config) {
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	if cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		req.Header.Set("X-Title", cfg.Title)
	}
}

func (chatDialect) decode(body []byte) (string, string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
			Text         string `json:"text"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", fmt.Errorf("decode response: %w", err)
	}
	if err := resp.Error.err(); err != nil {
		return "", "", err
	}
	if len(resp.Choices) == 0 {
		return "", "", errors.New("empty choices")
	}
	var reason string
	for _, choice := range resp.Choices {
		for _, candidate := range []string{choice.Message.Content, choice.Text} {
			if text := strings.TrimSpace(candidate); text != "" {
				return text, "", nil
			}
		}
		switch {
		case strings.TrimSpace(choice.Message.Refusal) != "":
			reason = "refusal: " + strings.TrimSpace(choice.Message.Refusal)
		case reason == "":
			reason = choice.FinishReason
		}
	}
	return "", reason, nil
}
