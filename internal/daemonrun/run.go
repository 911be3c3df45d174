package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"crashnotify/internal/config"
	"crashnotify/internal/daemon"
	"crashnotify/internal/deps"
	"crashnotify/internal/dispatch"
	"crashnotify/internal/guard"
	"crashnotify/internal/logging"
	"crashnotify/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// IsClient reports whether a command line of the same binary is a
	// short-lived client invocation rather than a daemon. Matching processes
	// are ignored by the process-table guard.
	IsClient func(cmdline []string) bool
	// Opener overrides the directory subscription, mainly for tests.
	Opener daemon.Opener
	// Runner overrides how the reporter is spawned, mainly for tests.
	Runner dispatch.Runner
}

// Run starts the crashnotifyd runtime and blocks until SIGINT/SIGTERM, ctx
// cancellation, or an unrecoverable watch failure.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	logPreflight(logger, cfg)

	g, err := guard.FromConfig(cfg.Guard, opts.IsClient)
	if err != nil {
		return err
	}

	dispatcher, err := dispatch.New(cfg, logger, opts.Runner)
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}

	d, err := daemon.New(cfg, logger, g, opts.Opener, dispatcher)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Run(signalCtx); err != nil {
		if !errors.Is(err, guard.ErrAlreadyRunning) {
			logging.ErrorWithContext(logger, "daemon exited", "daemon_exit",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the watch directory exists and is readable"),
				logging.String(logging.FieldImpact, "crash reports are no longer being dispatched"),
			)
		}
		return err
	}
	logger.Info("crashnotifyd shutting down")
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	statuses := deps.CheckBinaries(deps.ReporterRequirements(cfg))
	for _, status := range statuses {
		if status.Available {
			logger.Debug("dependency available",
				logging.String(logging.FieldEventType, "dependency_snapshot"),
				logging.String("dependency", status.Name),
				logging.String("binary", status.Path),
			)
			continue
		}
		logging.WarnWithContext(logger, "dependency unavailable", "dependency_snapshot",
			logging.String("dependency", status.Name),
			logging.String("binary", status.Command),
			logging.String("detail", status.Detail),
			logging.String(logging.FieldErrorHint, "install the reporter or set reporter.command"),
			logging.String(logging.FieldImpact, "every dispatch will fail until the reporter is available"),
		)
	}
}

func logPreflight(logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "create the directory or fix its permissions"),
			logging.String(logging.FieldImpact, "the watch subscription or instance lock may fail"),
		)
	}
}
