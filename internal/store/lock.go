package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".lock"

// DirLock is an advisory lock on a data directory, held by a process that
// mutates the store while another process may be running.
type DirLock struct {
	lock *flock.Flock
	path string
	wait io.Writer
}

// NewDirLock creates a lock for the given data directory. When the lock is
// contended a notice is written to wait, if set.
func NewDirLock(dir string, wait io.Writer) (*DirLock, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve data dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(abs, lockFileName)
	return &DirLock{lock: flock.New(path), path: path, wait: wait}, nil
}

// Lock acquires the lock, blocking if another process holds it.
func (l *DirLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if !locked {
		if l.wait != nil {
			fmt.Fprintf(l.wait, "Another process is writing to %s, waiting for it to finish...\n", filepath.Dir(l.path))
		}
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// TryLock acquires the lock without blocking.
func (l *DirLock) TryLock() (bool, error) {
	return l.lock.TryLock()
}

// Unlock releases the lock.
func (l *DirLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
