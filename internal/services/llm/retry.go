package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type retryPolicy struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
	sleeper  func(time.Duration)
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: 3, base: time.Second, ceiling: 10 * time.Second}
}

// run calls fn until it succeeds, fails permanently or attempts run out.
func (p retryPolicy) run(ctx context.Context, op string, fn func() (string, error)) (string, error) {
	attempts := max(p.attempts, 1)
	for attempt := 1; ; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		if !IsRetryable(err) || ctx.Err() != nil {
			return "", err
		}
		if attempt == attempts {
			if attempts == 1 {
				return "", err
			}
			return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, err)
		}
		if err := p.wait(ctx, p.delay(err, attempt)); err != nil {
			return "", err
		}
	}
}

// delay honours Retry-After, otherwise doubles base per attempt. Both are
// capped by ceiling.
func (p retryPolicy) delay(err error, attempt int) time.Duration {
	var statusErr *httpStatusError
	d := p.base << (attempt - 1)
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		d = statusErr.RetryAfter
	}
	if d < 0 || (p.ceiling > 0 && d > p.ceiling) {
		d = p.ceiling
	}
	return max(d, 0)
}

func (p retryPolicy) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if p.sleeper != nil {
		p.sleeper(d)
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

// IsRetryable reports whether err is worth another attempt: rate limits,
// server errors, network timeouts and empty replies.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var empty *emptyContentError
	if errors.As(err, &empty) {
		return true
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parseRetryAfter reads delta-seconds or an HTTP date relative to now.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return max(time.Duration(seconds)*time.Second, 0)
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(when.Sub(now), 0)
	}
	return 0
}
