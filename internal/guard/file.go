package guard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// FileGuard holds an exclusive advisory lock on Path for the daemon's
// lifetime. The kernel drops the lock when the process exits, so a crashed
// daemon never leaves a stale guard behind.
type FileGuard struct {
	Path string
}

type fileLock struct {
	lock *flock.Flock
}

func (l *fileLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.lock.Path(), err)
	}
	return nil
}

// Acquire takes the lock without blocking and records the current PID in the
// lock file.
func (g *FileGuard) Acquire(context.Context) (Lock, error) {
	if strings.TrimSpace(g.Path) == "" {
		return nil, fmt.Errorf("file guard: empty lock path")
	}
	if err := os.MkdirAll(filepath.Dir(g.Path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}

	lock := flock.New(g.Path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", g.Path, err)
	}
	if !locked {
		if pid, ok := ReadLockPID(g.Path); ok {
			return nil, fmt.Errorf("%w (lock %s held by pid %d)", ErrAlreadyRunning, g.Path, pid)
		}
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, g.Path)
	}

	if err := os.WriteFile(g.Path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write lock pid: %w", err)
	}
	return &fileLock{lock: lock}, nil
}

// Held reports whether another process currently holds the lock at path.
func Held(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock %s: %w", path, err)
	}
	if locked {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}

// ReadLockPID returns the PID recorded in the lock file, if any.
func ReadLockPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
