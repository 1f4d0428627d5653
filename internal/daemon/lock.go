package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrRunInProgress reports that another process or goroutine holds the run lock.
var ErrRunInProgress = errors.New("another catalog run is in progress")

// RunLock serialises pipeline runs through a lock file.
type RunLock struct {
	path string
	lock *flock.Flock
}

// NewRunLock returns a lock backed by path. The file is created on first use.
func NewRunLock(path string) *RunLock {
	return &RunLock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.path
}

// TryAcquire takes the lock without blocking. It returns ErrRunInProgress when
// the lock is already held.
func (l *RunLock) TryAcquire() error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create lock directory: %w", err)
		}
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrRunInProgress
	}
	return nil
}

// Release drops the lock.
func (l *RunLock) Release() error {
	return l.lock.Unlock()
}
