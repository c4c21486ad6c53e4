// Package filex holds file system helpers for the local store: creating
// its directory and holding an exclusive lock while a process uses it.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("store is used by another process")

// EnsureParentDir creates the directory that will contain path.
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(path)
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// StoreLock is an exclusive advisory lock on a store, held in a file next
// to it.
type StoreLock struct {
	lock *flock.Flock
}

// LockStore takes the lock for the store at path without waiting. It
// returns ErrLocked when another process holds it.
func LockStore(path string) (*StoreLock, error) {
	l := flock.New(path + ".lock")

	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, l.Path())
	}
	return &StoreLock{lock: l}, nil
}

// Path is the lock file.
func (s *StoreLock) Path() string { return s.lock.Path() }

func (s *StoreLock) Unlock() error {
	return s.lock.Unlock()
}
