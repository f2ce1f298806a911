// Package notifications delivers pipeline messages to a Telegram chat and
// reads the approval replies sent back to it.
//
// NewService returns a Telegram implementation when a bot token and chat id
// are configured and gracefully degrades to a no-op otherwise, so stage
// runners can notify unconditionally. Outbound messages are paced with a
// token bucket; incoming updates are acknowledged through the getUpdates
// offset so each reply is delivered once per process.
//
// Message templates and the capped stage summary builder live alongside the
// transport so every stage renders the same HTML-safe texts.
package notifications
