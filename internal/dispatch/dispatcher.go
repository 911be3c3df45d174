package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"

	"crashnotify/internal/config"
	"crashnotify/internal/crashreport"
	"crashnotify/internal/inotify"
	"crashnotify/internal/logging"
)

// Trigger sources recorded with each dispatch.
const (
	TriggerEvent   = "event"
	TriggerStartup = "startup"
)

// Stats counts dispatcher outcomes since construction.
type Stats struct {
	Dispatched uint64
	Failed     uint64
	Skipped    uint64
}

// Dispatcher turns eligible events into reporter invocations.
type Dispatcher struct {
	dir      string
	policy   Policy
	command  string
	args     []string
	skipSeen bool
	runner   Runner
	logger   *slog.Logger
	newID    func() string

	dispatched atomic.Uint64
	failed     atomic.Uint64
	skipped    atomic.Uint64
}

// New builds a dispatcher for the watch and reporter sections of cfg. A nil
// runner spawns processes with the configured timeout.
func New(cfg *config.Config, logger *slog.Logger, runner Runner) (*Dispatcher, error) {
	if cfg == nil {
		return nil, errors.New("dispatch: config required")
	}
	trigger, err := inotify.ParseMask(cfg.Watch.Events)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	if trigger == 0 {
		trigger = inotify.CloseWrite
	}
	if cfg.Reporter.Command == "" {
		return nil, errors.New("dispatch: reporter command required")
	}
	if runner == nil {
		runner = ExecRunner{Timeout: cfg.ReporterTimeout()}
	}
	return &Dispatcher{
		dir:      cfg.Watch.Dir,
		policy:   Policy{Suffix: cfg.Watch.Suffix, Trigger: trigger},
		command:  cfg.Reporter.Command,
		args:     append([]string(nil), cfg.Reporter.Args...),
		skipSeen: cfg.Reporter.SkipSeen,
		runner:   runner,
		logger:   logging.NewComponentLogger(logger, "dispatch"),
		newID:    uuid.NewString,
	}, nil
}

// Policy returns the event filter in use.
func (d *Dispatcher) Policy() Policy {
	return d.policy
}

// Argv returns the reporter argument vector for the report at path.
func (d *Dispatcher) Argv(path string) []string {
	argv := make([]string, 0, len(d.args)+2)
	argv = append(argv, d.command)
	argv = append(argv, d.args...)
	return append(argv, path)
}

// Stats returns a snapshot of the outcome counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Dispatched: d.dispatched.Load(),
		Failed:     d.failed.Load(),
		Skipped:    d.skipped.Load(),
	}
}

// Handle dispatches ev if the policy accepts it. It reports whether the
// reporter was started; the error describes a failed or unsuccessful run.
// Repeated events for the same report each dispatch again.
func (d *Dispatcher) Handle(ctx context.Context, ev inotify.Event) (bool, error) {
	if reason := d.policy.Check(ev); reason != "" {
		d.logger.Debug("event ignored",
			logging.String("name", ev.Name),
			logging.String(logging.FieldMask, ev.Mask.String()),
			logging.String("reason", reason),
		)
		return false, nil
	}
	return d.dispatch(ctx, filepath.Join(d.dir, ev.Name), ev.Mask, TriggerEvent)
}

// CatchUp dispatches every unseen report already present in the watch
// directory, oldest first, and returns how many were started.
func (d *Dispatcher) CatchUp(ctx context.Context) (int, error) {
	reports, err := crashreport.List(d.dir, d.policy.Suffix)
	if err != nil {
		return 0, err
	}
	pending := crashreport.Unseen(reports)
	d.logger.Info("startup scan",
		logging.String(logging.FieldWatchDir, d.dir),
		logging.Int("reports", len(reports)),
		logging.Int("unseen", len(pending)),
	)

	started := 0
	var errs []error
	for _, report := range pending {
		if err := ctx.Err(); err != nil {
			return started, err
		}
		ok, err := d.dispatch(ctx, report.Path, 0, TriggerStartup)
		if ok {
			started++
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return started, errors.Join(errs...)
}

func (d *Dispatcher) dispatch(ctx context.Context, path string, mask inotify.Mask, trigger string) (bool, error) {
	ctx = logging.WithDispatchID(ctx, d.newID())
	logger := logging.WithContext(ctx, d.logger)

	if d.skipSeen {
		seen, err := crashreport.Seen(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			d.skipped.Add(1)
			logger.Debug("report vanished before dispatch", logging.String(logging.FieldReportPath, path))
			return false, nil
		case err != nil:
			logger.Debug("seen check failed; dispatching anyway", logging.String(logging.FieldReportPath, path), logging.Error(err))
		case seen:
			d.skipped.Add(1)
			logger.Debug("report already seen", logging.String(logging.FieldReportPath, path))
			return false, nil
		}
	}

	argv := d.Argv(path)
	logging.Notice(logger, "dispatching crash report",
		logging.String(logging.FieldReportPath, path),
		logging.String(logging.FieldMask, mask.String()),
		logging.Uint64(logging.FieldMaskValue, uint64(mask)),
		logging.String("trigger", trigger),
		logging.String("command", d.command),
	)

	result, err := d.runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		d.failed.Add(1)
		logging.WarnWithContext(logger, "reporter failed", logging.EventDispatchFailed,
			logging.String(logging.FieldReportPath, path),
			logging.Int("exit_code", result.ExitCode),
			logging.Duration("duration", result.Duration),
			logging.String("output", result.Output),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run the reporter manually with the report path"),
			logging.String(logging.FieldImpact, "the crash report was not filed"),
		)
		return true, fmt.Errorf("dispatch %s: %w", path, err)
	}

	d.dispatched.Add(1)
	attrs := []logging.Attr{
		logging.String(logging.FieldReportPath, path),
		logging.Int("exit_code", result.ExitCode),
		logging.Duration("duration", result.Duration),
	}
	if result.Output != "" {
		attrs = append(attrs, logging.String("output", result.Output))
	}
	logger.Debug("reporter finished", logging.Args(attrs...)...)
	return true, nil
}
