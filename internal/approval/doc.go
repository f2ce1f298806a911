// Package approval implements the human confirmation step in front of
// publishing.
//
// A Gate polls an injected Source for chat messages of the form "yes <id>",
// matches the id case-insensitively against the pending set, and ignores any
// update id it has already processed. The total wait is bounded by
// Settings.Deadline; whatever is still pending when it passes is reported to
// Handlers.Expired in one call so the caller can revert those items. Clock and
// sleeper are injectable so timeouts can be tested without real waits.
package approval
