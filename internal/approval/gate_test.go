package approval_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"reelpipe/internal/approval"
)

type fakeClock struct {
	now    time.Time
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps++
	c.now = c.now.Add(d)
	return nil
}

func newGate(clock *fakeClock, settings approval.Settings, source approval.Source) *approval.Gate {
	return approval.New(settings, source, approval.WithClock(clock.Now), approval.WithSleeper(clock.Sleep))
}

func TestWaitTimeoutRevertsAllPending(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	settings := approval.Settings{PerItem: time.Second, MaxWait: time.Minute, PollInterval: 500 * time.Millisecond}
	source := approval.SourceFunc(func(context.Context) ([]approval.Update, error) { return nil, nil })

	statuses := map[string]string{"AAA111": "uploading", "BBB222": "uploading"}
	pending := []string{"AAA111", "BBB222"}
	gate := newGate(clock, settings, source)

	outcome, err := gate.Wait(context.Background(), pending, approval.Handlers{
		Expired: func(_ context.Context, ids []string) {
			for _, id := range ids {
				statuses[id] = "ok"
			}
		},
	})
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if outcome.Deadline != 2*time.Second {
		t.Fatalf("expected 2s deadline, got %v", outcome.Deadline)
	}
	if !reflect.DeepEqual(outcome.Expired, pending) {
		t.Fatalf("expected both items expired, got %v", outcome.Expired)
	}
	if len(outcome.Approved) != 0 {
		t.Fatalf("expected no approvals, got %v", outcome.Approved)
	}
	for id, status := range statuses {
		if status != "ok" {
			t.Fatalf("expected %s reverted to ok, got %s", id, status)
		}
	}
	if elapsed := clock.Now().Sub(start); elapsed < 2*time.Second || elapsed > 3*time.Second {
		t.Fatalf("expected about 2s of simulated waiting, got %v", elapsed)
	}
}

func TestWaitDeduplicatesUpdates(t *testing.T) {
	clock := newFakeClock()
	settings := approval.Settings{PerItem: time.Second, MaxWait: time.Minute, PollInterval: 250 * time.Millisecond}
	polls := 0
	source := approval.SourceFunc(func(context.Context) ([]approval.Update, error) {
		polls++
		return []approval.Update{{ID: 7, Text: "yes abc123"}}, nil
	})

	approvals := map[string]int{}
	var expired []string
	gate := newGate(clock, settings, source)
	outcome, err := gate.Wait(context.Background(), []string{"ABC123", "XYZ789"}, approval.Handlers{
		Approved: func(_ context.Context, id string) { approvals[id]++ },
		Expired:  func(_ context.Context, ids []string) { expired = ids },
	})
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if polls < 2 {
		t.Fatalf("expected the update to be polled repeatedly, got %d polls", polls)
	}
	if approvals["ABC123"] != 1 || len(approvals) != 1 {
		t.Fatalf("expected ABC123 approved exactly once, got %v", approvals)
	}
	if !reflect.DeepEqual(outcome.Approved, []string{"ABC123"}) {
		t.Fatalf("unexpected approved list %v", outcome.Approved)
	}
	if !reflect.DeepEqual(expired, []string{"XYZ789"}) {
		t.Fatalf("expected XYZ789 to expire, got %v", expired)
	}
}

func TestWaitReturnsOnceEverythingApproved(t *testing.T) {
	clock := newFakeClock()
	settings := approval.Settings{PerItem: time.Minute, MaxWait: time.Hour, PollInterval: 5 * time.Second}
	batches := [][]approval.Update{
		{{ID: 1, Text: "hola"}},
		{{ID: 2, Text: "YES one"}, {ID: 3, Text: "yes TWO"}},
	}
	source := approval.SourceFunc(func(context.Context) ([]approval.Update, error) {
		if len(batches) == 0 {
			return nil, nil
		}
		next := batches[0]
		batches = batches[1:]
		return next, nil
	})

	expiredCalled := false
	gate := newGate(clock, settings, source)
	outcome, err := gate.Wait(context.Background(), []string{"one", "two"}, approval.Handlers{
		Expired: func(context.Context, []string) { expiredCalled = true },
	})
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !reflect.DeepEqual(outcome.Approved, []string{"one", "two"}) {
		t.Fatalf("unexpected approvals %v", outcome.Approved)
	}
	if expiredCalled || len(outcome.Expired) != 0 {
		t.Fatal("expected no expiry")
	}
	if clock.sleeps != 1 {
		t.Fatalf("expected a single inter-poll sleep, got %d", clock.sleeps)
	}
}

func TestWaitSurvivesPollErrors(t *testing.T) {
	clock := newFakeClock()
	settings := approval.Settings{PerItem: 10 * time.Second, MaxWait: time.Minute, PollInterval: time.Second}
	calls := 0
	source := approval.SourceFunc(func(context.Context) ([]approval.Update, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("network down")
		}
		return []approval.Update{{ID: 9, Text: "yes vid1"}}, nil
	})

	outcome, err := newGate(clock, settings, source).Wait(context.Background(), []string{"vid1"}, approval.Handlers{})
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !reflect.DeepEqual(outcome.Approved, []string{"vid1"}) {
		t.Fatalf("expected approval after poll error, got %+v", outcome)
	}
}

func TestWaitCancelledContextExpiresRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	settings := approval.Settings{PerItem: time.Second, MaxWait: time.Minute, PollInterval: time.Second}
	source := approval.SourceFunc(func(context.Context) ([]approval.Update, error) { return nil, nil })

	var expired []string
	outcome, err := approval.New(settings, source).Wait(ctx, []string{"a1"}, approval.Handlers{
		Expired: func(_ context.Context, ids []string) { expired = ids },
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !reflect.DeepEqual(expired, []string{"a1"}) || !reflect.DeepEqual(outcome.Expired, []string{"a1"}) {
		t.Fatalf("expected a1 expired, got %v", expired)
	}
}

func TestDeadlineIsCapped(t *testing.T) {
	settings := approval.Settings{PerItem: 300 * time.Second, MaxWait: 1800 * time.Second}
	if got := settings.Deadline(2); got != 600*time.Second {
		t.Fatalf("expected 600s, got %v", got)
	}
	if got := settings.Deadline(10); got != 1800*time.Second {
		t.Fatalf("expected cap of 1800s, got %v", got)
	}
}

func TestParseApproval(t *testing.T) {
	cases := []struct {
		text string
		id   string
		ok   bool
	}{
		{"yes ABC123", "ABC123", true},
		{"YES abc123", "abc123", true},
		{"  yes   id1 extra", "id1", true},
		{"yes", "", false},
		{"yesid", "", false},
		{"no ABC123", "", false},
	}
	for _, tc := range cases {
		id, ok := approval.ParseApproval(tc.text)
		if id != tc.id || ok != tc.ok {
			t.Errorf("ParseApproval(%q) = %q,%v want %q,%v", tc.text, id, ok, tc.id, tc.ok)
		}
	}
}
