// Package singleinstance guards against running two copies of the
// application. The guard is a held file lock in the user temp directory; it
// releases automatically when the process dies, so a crash never leaves the
// next start locked out.
package singleinstance

import (
	"fmt"
	"os"
	"path/filepath"
)

// ErrAlreadyRunning is returned when another process holds the lock.
var ErrAlreadyRunning = fmt.Errorf("another instance is already running")

// Lock is a held single-instance guard.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the named lock. It fails with ErrAlreadyRunning when another
// live process holds it.
func Acquire(name string) (*Lock, error) {
	path := filepath.Join(os.TempDir(), name+".lock")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w (lock file %s)", ErrAlreadyRunning, path)
	}

	// Best effort; the lock itself is what matters.
	f.Truncate(0)
	fmt.Fprintf(f, "%d\n", os.Getpid())

	return &Lock{file: f, path: path}, nil
}

// Release drops the lock. Safe to call on a nil lock.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	unlockFile(l.file)
	l.file.Close()
	l.file = nil
	os.Remove(l.path)
}
