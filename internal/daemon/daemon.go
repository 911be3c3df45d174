package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"

	"crashnotify/internal/config"
	"crashnotify/internal/dispatch"
	"crashnotify/internal/guard"
	"crashnotify/internal/inotify"
	"crashnotify/internal/logging"
)

// ErrWatchLost reports that the directory subscription could not be
// established or re-established.
var ErrWatchLost = errors.New("watch subscription lost")

// lostMask marks events after which the watch descriptor no longer follows
// the configured path.
const lostMask = inotify.Ignored | inotify.DeleteSelf | inotify.MoveSelf | inotify.Unmount

// spinThreshold is the number of consecutive failed reads after which the
// loop starts sleeping between reads.
const spinThreshold = 100

// Daemon owns the watch loop for one crash directory.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	guard      guard.Guard
	open       Opener
	dispatcher *dispatch.Dispatcher
	mask       inotify.Mask

	running atomic.Bool
	mu      sync.Mutex
	source  Source
}

// New constructs a daemon. A nil opener uses the kernel inotify interface.
func New(cfg *config.Config, logger *slog.Logger, g guard.Guard, open Opener, d *dispatch.Dispatcher) (*Daemon, error) {
	if cfg == nil || g == nil || d == nil {
		return nil, errors.New("daemon requires config, guard, and dispatcher")
	}
	if open == nil {
		open = SystemOpener
	}
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		guard:      g,
		open:       open,
		dispatcher: d,
		mask:       inotify.CloseWrite | d.Policy().Trigger | inotify.DeleteSelf | inotify.MoveSelf,
	}, nil
}

// Running reports whether Run is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Run blocks until ctx is cancelled or the watch is lost. A cancelled
// context is a clean shutdown and returns nil.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	lock, err := d.guard.Acquire(ctx)
	if err != nil {
		if errors.Is(err, guard.ErrAlreadyRunning) {
			logging.WarnWithContext(d.logger, "another instance is active; exiting", logging.EventGuardConflict,
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "stop the running instance or use the status command"),
				logging.String(logging.FieldImpact, "this instance will not watch for crash reports"),
			)
		}
		return fmt.Errorf("instance guard: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			d.logger.Warn("failed to release instance guard", logging.Error(err))
		}
	}()

	src, err := d.subscribe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	d.setSource(src)
	defer d.closeSource()
	stop := context.AfterFunc(ctx, d.closeSource)
	defer stop()

	logging.Notice(d.logger, "daemon started",
		logging.String(logging.FieldWatchDir, d.cfg.Watch.Dir),
		logging.String("suffix", d.cfg.Watch.Suffix),
		logging.String("trigger", d.dispatcher.Policy().Trigger.String()),
		logging.Int(logging.FieldPID, os.Getpid()),
	)

	if d.cfg.Watch.DispatchExisting {
		d.catchUp(ctx)
	}

	err = d.loop(ctx)
	stats := d.dispatcher.Stats()
	d.logger.Info("daemon stopped",
		logging.Uint64("dispatched", stats.Dispatched),
		logging.Uint64("failed", stats.Failed),
		logging.Uint64("skipped", stats.Skipped),
	)
	return err
}

func (d *Daemon) loop(ctx context.Context) error {
	buf := make([]byte, inotify.BufferSize(d.cfg.Watch.BufferEvents))
	dec := inotify.NewDecoder(nil)
	failures := 0

	for {
		src := d.currentSource()
		if src == nil {
			return nil
		}
		n, err := src.Read(buf)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, os.ErrClosed) {
			return fmt.Errorf("%w: descriptor closed", ErrWatchLost)
		}
		if err != nil || n == 0 {
			failures++
			d.readFailed(n, err, failures)
			if failures > spinThreshold {
				if !sleepCtx(ctx, time.Duration(failures)*time.Millisecond) {
					return nil
				}
			}
			continue
		}
		failures = 0

		d.logger.Debug("read events", logging.Int("bytes", n))
		dec.Reset(buf[:n])
		lost := false
		for dec.Next() {
			if d.handle(ctx, src, dec.Event()) {
				lost = true
			}
		}
		if err := dec.Err(); err != nil {
			logging.WarnWithContext(d.logger, "malformed inotify record", logging.EventWatchRead,
				logging.Error(err),
				logging.Int("offset", dec.Offset()),
				logging.Int("bytes", n),
				logging.String(logging.FieldImpact, "the remainder of this batch was discarded"),
			)
		}

		if lost {
			if err := d.resubscribe(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// handle processes one event and reports whether it invalidated the watch.
func (d *Daemon) handle(ctx context.Context, src Source, ev inotify.Event) bool {
	switch {
	case ev.Mask.Has(inotify.QOverflow):
		logging.WarnWithContext(d.logger, "inotify queue overflowed", logging.EventWatchOverflow,
			logging.String(logging.FieldErrorHint, "raise fs.inotify.max_queued_events or enable watch.dispatch_existing"),
			logging.String(logging.FieldImpact, "crash reports written during the overflow were not dispatched"),
		)
		if d.cfg.Watch.DispatchExisting {
			d.catchUp(ctx)
		}
		return false
	case ev.Wd == src.WatchDescriptor() && ev.Mask.Has(lostMask):
		logging.WarnWithContext(d.logger, "watch directory subscription ended", logging.EventWatchLost,
			logging.String(logging.FieldMask, ev.Mask.String()),
			logging.String(logging.FieldWatchDir, d.cfg.Watch.Dir),
			logging.String(logging.FieldErrorHint, "check that the watch directory still exists"),
			logging.String(logging.FieldImpact, "events are missed until the watch is re-established"),
		)
		return true
	default:
		// Failures are logged by the dispatcher; the loop keeps going.
		_, _ = d.dispatcher.Handle(ctx, ev)
		return false
	}
}

func (d *Daemon) readFailed(n int, err error, failures int) {
	attrs := []logging.Attr{
		logging.Int("consecutive_failures", failures),
		logging.String(logging.FieldImpact, "retrying read"),
	}
	msg := "inotify read failed"
	if err == nil || errors.Is(err, io.EOF) {
		msg = "inotify read returned no data"
		attrs = append(attrs, logging.Int("bytes", n))
	} else {
		attrs = append(attrs, logging.Error(err))
	}
	logging.WarnWithContext(d.logger, msg, logging.EventWatchRead, attrs...)
}

func (d *Daemon) catchUp(ctx context.Context) {
	started, err := d.dispatcher.CatchUp(ctx)
	if err != nil && ctx.Err() == nil {
		logging.WarnWithContext(d.logger, "startup scan incomplete", logging.EventDispatchFailed,
			logging.Error(err),
			logging.Int("dispatched", started),
			logging.String(logging.FieldImpact, "some existing crash reports were not filed"),
		)
		return
	}
	d.logger.Info("startup scan complete", logging.Int("dispatched", started))
}

func (d *Daemon) subscribe(ctx context.Context) (Source, error) {
	dir := d.cfg.Watch.Dir
	attempts := d.cfg.Watch.SubscribeAttempts
	if attempts < 1 {
		attempts = 1
	}

	src, err := retry.DoWithData(
		func() (Source, error) {
			src, err := d.open(dir, d.mask)
			if errors.Is(err, inotify.ErrUnsupported) {
				return nil, retry.Unrecoverable(err)
			}
			return src, err
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(d.cfg.SubscribeDelay()),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logging.WarnWithContext(d.logger, "watch subscription failed; retrying", logging.EventWatchSubscribe,
				logging.Error(err),
				logging.String(logging.FieldWatchDir, dir),
				logging.Int("attempt", int(n)+1),
				logging.Int("max_attempts", attempts),
				logging.String(logging.FieldErrorHint, "check that the watch directory exists and is readable"),
				logging.String(logging.FieldImpact, "crash reports are not being watched"),
			)
		}),
	)
	if err != nil {
		logging.ErrorWithContext(d.logger, "watch subscription failed", logging.EventWatchSubscribe,
			logging.Error(err),
			logging.String(logging.FieldWatchDir, dir),
			logging.String(logging.FieldErrorHint, "check that the watch directory exists and is readable"),
		)
		return nil, fmt.Errorf("%w: %s: %w", ErrWatchLost, dir, err)
	}
	d.logger.Debug("watch subscribed",
		logging.String(logging.FieldWatchDir, dir),
		logging.String(logging.FieldMask, d.mask.String()),
		logging.Int("wd", int(src.WatchDescriptor())),
	)
	return src, nil
}

func (d *Daemon) resubscribe(ctx context.Context) error {
	d.closeSource()
	src, err := d.subscribe(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if ctx.Err() != nil {
		_ = src.Close()
		return ctx.Err()
	}
	d.source = src
	d.logger.Info("watch re-established", logging.String(logging.FieldWatchDir, d.cfg.Watch.Dir))
	return nil
}

func (d *Daemon) setSource(src Source) {
	d.mu.Lock()
	d.source = src
	d.mu.Unlock()
}

func (d *Daemon) currentSource() Source {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.source
}

func (d *Daemon) closeSource() {
	d.mu.Lock()
	src := d.source
	d.source = nil
	d.mu.Unlock()
	if src != nil {
		_ = src.Close()
	}
}

func sleepCtx(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
