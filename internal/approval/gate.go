package approval

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"reelpipe/internal/logging"
)

// Update is one incoming chat message.
type Update struct {
	ID   int
	Text string
}

// Source yields chat messages received since the previous call. It may
// return updates already seen; the gate discards repeated ids.
type Source interface {
	Poll(ctx context.Context) ([]Update, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Update, error)

// Poll calls f.
func (f SourceFunc) Poll(ctx context.Context) ([]Update, error) {
	return f(ctx)
}

// Settings bounds the wait. The total wait is PerItem times the number of
// pending items, capped at MaxWait.
type Settings struct {
	PerItem      time.Duration
	MaxWait      time.Duration
	PollInterval time.Duration
}

// Handlers receive gate decisions. Either may be nil.
type Handlers struct {
	// Approved runs as soon as an item is approved, before the next poll.
	Approved func(ctx context.Context, videoID string)
	// Expired runs once with every item still pending at the deadline.
	Expired func(ctx context.Context, videoIDs []string)
}

// Outcome summarizes one Wait call.
type Outcome struct {
	Approved []string
	Expired  []string
	Deadline time.Duration
}

// Gate waits for "yes <id>" messages. A Gate remembers the update ids it has
// processed for its whole lifetime.
type Gate struct {
	settings Settings
	source   Source
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger
	seen     map[int]struct{}
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// WithSleeper replaces the delay between polls.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gate) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

// WithLogger sets the gate logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New returns a Gate polling source.
func New(settings Settings, source Source, opts ...Option) *Gate {
	g := &Gate{
		settings: settings,
		source:   source,
		now:      time.Now,
		sleep:    sleepContext,
		logger:   logging.NewNop(),
		seen:     make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Deadline returns min(PerItem*count, MaxWait).
func (s Settings) Deadline(count int) time.Duration {
	wait := s.PerItem * time.Duration(count)
	if s.MaxWait > 0 && wait > s.MaxWait {
		wait = s.MaxWait
	}
	return wait
}

var approvePattern = regexp.MustCompile(`(?i)^\s*yes\s+(\S+)`)

// ParseApproval extracts the id from a "yes <id>" message.
func ParseApproval(text string) (string, bool) {
	m := approvePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Wait blocks until every id in pending is approved or the deadline passes.
// Items still pending at the deadline are handed to Handlers.Expired and the
// pending set is cleared. Context cancellation is treated like expiry.
func (g *Gate) Wait(ctx context.Context, pending []string, h Handlers) (Outcome, error) {
	remaining := make([]string, 0, len(pending))
	index := make(map[string]struct{}, len(pending))
	for _, id := range pending {
		if _, dup := index[strings.ToLower(id)]; dup || id == "" {
			continue
		}
		index[strings.ToLower(id)] = struct{}{}
		remaining = append(remaining, id)
	}

	outcome := Outcome{Deadline: g.settings.Deadline(len(remaining))}
	if len(remaining) == 0 {
		return outcome, nil
	}
	deadline := g.now().Add(outcome.Deadline)
	g.logger.Info("approval gate waiting",
		logging.Int("pending", len(remaining)),
		logging.Duration("deadline", outcome.Deadline),
		logging.String(logging.FieldEventType, "approval_wait"),
	)

	var waitErr error
	for len(remaining) > 0 && g.now().Before(deadline) {
		updates, err := g.source.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				waitErr = ctx.Err()
				break
			}
			logging.WarnWithContext(g.logger, "approval poll failed", "approval_poll_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check chat bot token and network"),
				logging.String(logging.FieldImpact, "approvals delayed until next poll"),
			)
		}
		for _, update := range updates {
			if _, ok := g.seen[update.ID]; ok {
				continue
			}
			g.seen[update.ID] = struct{}{}
			id, ok := ParseApproval(update.Text)
			if !ok {
				continue
			}
			pos := indexFold(remaining, id)
			if pos < 0 {
				g.logger.Debug("approval for unknown item ignored", logging.String(logging.FieldVideoID, id))
				continue
			}
			approved := remaining[pos]
			remaining = append(remaining[:pos], remaining[pos+1:]...)
			outcome.Approved = append(outcome.Approved, approved)
			g.logger.Info("item approved",
				logging.String(logging.FieldVideoID, approved),
				logging.String(logging.FieldEventType, "approval_granted"),
			)
			if h.Approved != nil {
				h.Approved(ctx, approved)
			}
		}
		if len(remaining) == 0 {
			break
		}
		if err := g.sleep(ctx, g.settings.PollInterval); err != nil {
			waitErr = err
			break
		}
	}

	if len(remaining) > 0 {
		outcome.Expired = append([]string(nil), remaining...)
		g.logger.Info("approval gate expired",
			logging.Int("expired", len(outcome.Expired)),
			logging.String(logging.FieldEventType, "approval_expired"),
		)
		if h.Expired != nil {
			h.Expired(context.WithoutCancel(ctx), outcome.Expired)
		}
	}
	return outcome, waitErr
}

func indexFold(ids []string, id string) int {
	for i, candidate := range ids {
		if strings.EqualFold(candidate, id) {
			return i
		}
	}
	return -1
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
