// Package llm provides a small text-completion client used to rewrite video
// metadata.
//
// Two wire formats are supported: the Anthropic messages API (provider
// "anthropic", the default) and OpenAI-compatible chat completions
// (providers "openrouter" and "openai"). Both send a single user turn with an
// optional system prompt and return the reply text.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive the reply text.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, network timeouts and empty
// replies with exponential backoff (base 1s, max 10s, 3 attempts by default).
// A Retry-After header overrides the computed delay. Context cancellation
// aborts retries immediately.
package llm
