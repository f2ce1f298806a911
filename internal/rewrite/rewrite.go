// Package rewrite asks an LLM to improve a video's publishable metadata and
// parses the labelled reply.
//
// The reply must contain a TÍTULO line, a DESCRIPCIÓN block (which may span
// several lines up to the TAGS line) and a comma-separated TAGS line. Labels
// are matched case-insensitively with or without accents, and markdown bold
// markers or square brackets around values are dropped. A reply missing any
// of the three fields is rejected.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"reelpipe/internal/logging"
	"reelpipe/internal/services"
	"reelpipe/internal/textutil"
)

// Result is the rewritten metadata.
type Result struct {
	Title       string
	Description string
	Tags        []string
}

// Rewriter produces improved metadata for one video.
type Rewriter interface {
	Rewrite(ctx context.Context, title, description string, tags []string) (Result, error)
}

// Completer is the text-completion surface the rewriter needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// ErrUnavailable reports that no completion backend is configured.
var ErrUnavailable = errors.New("rewrite backend not configured")

// LLMRewriter implements Rewriter on top of a Completer.
type LLMRewriter struct {
	client Completer
	logger *slog.Logger
}

// New returns a rewriter backed by client. A nil client yields a rewriter
// whose every call fails with ErrUnavailable.
func New(client Completer, logger *slog.Logger) *LLMRewriter {
	return &LLMRewriter{client: client, logger: logging.NewComponentLogger(logger, "rewrite")}
}

// Rewrite implements Rewriter.
func (r *LLMRewriter) Rewrite(ctx context.Context, title, description string, tags []string) (Result, error) {
	if r == nil || r.client == nil {
		return Result{}, ErrUnavailable
	}
	reply, err := r.client.Complete(ctx, "", BuildPrompt(title, description, tags))
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "rewrite", "complete", "llm request failed", err)
	}
	result, err := ParseResponse(reply)
	if err != nil {
		return Result{}, err
	}
	r.logger.Debug("rewrite parsed",
		logging.String("title", textutil.RunePrefix(result.Title, 50)),
		logging.Int("description_runes", len([]rune(result.Description))),
		logging.Int("tags", len(result.Tags)),
	)
	return result, nil
}

type field int

const (
	fieldNone field = iota
	fieldTitle
	fieldDescription
	fieldTags
)

// labelOf recognises a "LABEL: value" line and returns the field plus the
// text following the colon.
func labelOf(line string) (field, string) {
	idx := strings.IndexRune(line, ':')
	if idx < 0 {
		return fieldNone, ""
	}
	label := strings.Trim(line[:idx], "*#_ \t")
	label = textutil.StripAccents(strings.ToUpper(label))
	rest := strings.TrimSpace(strings.TrimLeft(line[idx+1:], "*_"))
	switch label {
	case "TITULO":
		return fieldTitle, rest
	case "DESCRIPCION":
		return fieldDescription, rest
	case "TAGS":
		return fieldTags, rest
	default:
		return fieldNone, ""
	}
}

// ParseResponse extracts the three labelled fields from an LLM reply.
func ParseResponse(reply string) (Result, error) {
	var (
		title, tagLine string
		description    []string
		current        field
	)
	for _, raw := range strings.Split(strings.ReplaceAll(reply, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if f, rest := labelOf(line); f != fieldNone {
			current = f
			switch f {
			case fieldTitle:
				if title == "" {
					title = rest
				}
			case fieldDescription:
				description = description[:0]
				if rest != "" {
					description = append(description, rest)
				}
			case fieldTags:
				if tagLine == "" {
					tagLine = rest
				}
			}
			continue
		}
		switch current {
		case fieldDescription:
			description = append(description, strings.TrimRight(raw, " \t"))
		case fieldTitle:
			if title == "" && line != "" {
				title = line
			}
		case fieldTags:
			if tagLine == "" && line != "" {
				tagLine = line
			}
		}
	}

	result := Result{
		Title:       cleanValue(title),
		Description: cleanValue(strings.Join(description, "\n")),
		Tags:        splitTags(tagLine),
	}
	var missing []string
	if result.Title == "" {
		missing = append(missing, "title")
	}
	if result.Description == "" {
		missing = append(missing, "description")
	}
	if len(result.Tags) == 0 {
		missing = append(missing, "tags")
	}
	if len(missing) > 0 {
		return Result{}, services.Wrap(services.ErrValidation, "rewrite", "parse", fmt.Sprintf("missing fields: %s", strings.Join(missing, ", ")), nil)
	}
	return result, nil
}

func cleanValue(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimSpace(strings.Trim(value, "*"))
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		value = strings.TrimSpace(value[1 : len(value)-1])
	}
	return value
}

func splitTags(line string) []string {
	line = cleanValue(line)
	if line == "" {
		return nil
	}
	parts := strings.Split(line, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.Trim(strings.TrimSpace(part), `"'`)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
