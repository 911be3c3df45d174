package guard

import (
	"context"
	"errors"
	"fmt"
)

// ErrAlreadyRunning reports that another daemon instance owns the guard.
var ErrAlreadyRunning = errors.New("another crashnotifyd instance is already running")

// Lock is held for the lifetime of the daemon.
type Lock interface {
	Release() error
}

// Guard is the startup precondition that keeps a single daemon per user.
// Acquire returns an error wrapping ErrAlreadyRunning when another instance
// is active; any other error means the check itself could not be completed
// and must be treated as fatal.
type Guard interface {
	Acquire(ctx context.Context) (Lock, error)
}

type nopLock struct{}

func (nopLock) Release() error { return nil }

type chain struct {
	guards []Guard
}

// Chain acquires each guard in order. If one fails, locks acquired so far are
// released before the error is returned.
func Chain(guards ...Guard) Guard {
	var filtered []Guard
	for _, g := range guards {
		if g != nil {
			filtered = append(filtered, g)
		}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &chain{guards: filtered}
}

func (c *chain) Acquire(ctx context.Context) (Lock, error) {
	held := make(multiLock, 0, len(c.guards))
	for _, g := range c.guards {
		lock, err := g.Acquire(ctx)
		if err != nil {
			if releaseErr := held.Release(); releaseErr != nil {
				return nil, errors.Join(err, fmt.Errorf("release partial guard: %w", releaseErr))
			}
			return nil, err
		}
		held = append(held, lock)
	}
	return held, nil
}

type multiLock []Lock

// Release releases in reverse acquisition order.
func (m multiLock) Release() error {
	var errs []error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
