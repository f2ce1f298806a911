// Package runlock keeps two pipeline runs from working the same ledger at
// once.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrHeld is returned when another process owns the lock.
var ErrHeld = errors.New("another reelpipe run is in progress")

// Lock is an advisory file lock. The zero path yields a no-op lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock at path without blocking. An empty path disables
// locking and always succeeds.
func Acquire(path string) (*Lock, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return &Lock{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrHeld, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file, or "" for a no-op lock.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks. It is safe to call on a no-op or nil lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
