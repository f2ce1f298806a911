package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"reelpipe/internal/fileutil"
)

var (
	// ErrItemNotFound is returned when no item carries the requested video id.
	ErrItemNotFound = errors.New("ledger item not found")
	// ErrInvalidTransition is returned when a status move is not in the transition table.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TimestampLayout is used for every timestamp the ledger writes itself.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Store reads and rewrites the ledger file. It holds no items in memory
// between calls.
type Store struct {
	path string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the ledger file location.
func (s *Store) Path() string {
	return s.path
}

// Now returns the store clock formatted as a ledger timestamp.
func (s *Store) Now() string {
	return s.now().Format(TimestampLayout)
}

// Load returns every item in the ledger. A missing or empty file is an empty ledger.
func (s *Store) Load() ([]WorkItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []WorkItem{}, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []WorkItem{}, nil
	}
	var items []WorkItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", s.path, err)
	}
	if items == nil {
		items = []WorkItem{}
	}
	return items, nil
}

// Save replaces the whole ledger with items.
func (s *Store) Save(items []WorkItem) error {
	if items == nil {
		items = []WorkItem{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// Update reloads the ledger, applies fn, and saves the result. When fn
// returns an error nothing is written.
func (s *Store) Update(fn func([]WorkItem) ([]WorkItem, error)) error {
	items, err := s.Load()
	if err != nil {
		return err
	}
	updated, err := fn(items)
	if err != nil {
		return err
	}
	return s.Save(updated)
}

// Append adds items whose video id is not yet present and returns how many
// were added.
func (s *Store) Append(newItems ...WorkItem) (int, error) {
	added := 0
	err := s.Update(func(items []WorkItem) ([]WorkItem, error) {
		seen := make(map[string]struct{}, len(items)+len(newItems))
		for _, item := range items {
			seen[item.VideoID] = struct{}{}
		}
		for _, item := range newItems {
			id := strings.TrimSpace(item.VideoID)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			item.VideoID = id
			if item.Status == "" {
				item.Status = StatusPending
			}
			items = append(items, item)
			added++
		}
		return items, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Get returns the item with the given video id.
func (s *Store) Get(videoID string) (WorkItem, error) {
	items, err := s.Load()
	if err != nil {
		return WorkItem{}, err
	}
	for _, item := range items {
		if item.VideoID == videoID {
			return item, nil
		}
	}
	return WorkItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, videoID)
}

// Transition reloads the ledger, moves one item to status to, applies the
// optional mutate hook, and persists the full ledger. The returned item is
// the persisted version.
func (s *Store) Transition(videoID string, to Status, mutate func(*WorkItem)) (WorkItem, error) {
	var result WorkItem
	err := s.Update(func(items []WorkItem) ([]WorkItem, error) {
		for i := range items {
			if items[i].VideoID != videoID {
				continue
			}
			from := items[i].Status
			if !CanTransition(from, to) {
				return nil, fmt.Errorf("%w: %s %q -> %q", ErrInvalidTransition, videoID, from, to)
			}
			items[i].Status = to
			items[i].StatusUpdatedAt = s.Now()
			if mutate != nil {
				mutate(&items[i])
			}
			result = items[i]
			return items, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, videoID)
	})
	if err != nil {
		return WorkItem{}, err
	}
	return result, nil
}

// TransitionAll moves every item currently in one of from to status to in a
// single rewrite and returns the affected items.
func (s *Store) TransitionAll(to Status, from ...Status) ([]WorkItem, error) {
	var moved []WorkItem
	err := s.Update(func(items []WorkItem) ([]WorkItem, error) {
		sources := make(map[Status]struct{}, len(from))
		for _, status := range from {
			if !CanTransition(status, to) {
				return nil, fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, status, to)
			}
			sources[status] = struct{}{}
		}
		stamp := s.Now()
		for i := range items {
			if _, ok := sources[items[i].Status]; !ok {
				continue
			}
			items[i].Status = to
			items[i].StatusUpdatedAt = stamp
			moved = append(moved, items[i])
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Mutate applies fn to one item without changing its status.
func (s *Store) Mutate(videoID string, fn func(*WorkItem)) (WorkItem, error) {
	var result WorkItem
	err := s.Update(func(items []WorkItem) ([]WorkItem, error) {
		for i := range items {
			if items[i].VideoID == videoID {
				fn(&items[i])
				result = items[i]
				return items, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, videoID)
	})
	if err != nil {
		return WorkItem{}, err
	}
	return result, nil
}
