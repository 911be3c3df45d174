package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"crashnotify/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level string
	// Format applies to OutputPaths: "console" or "json".
	Format string
	// OutputPaths accepts "stdout", "stderr" and file paths.
	OutputPaths []string
	// Syslog routes records to the local syslog daemon under SyslogTag.
	Syslog      bool
	SyslogTag   string
	Development bool
}

// New constructs a slog logger using the provided options. With no outputs
// and syslog disabled the logger writes to stderr. If syslog cannot be
// reached and nothing else is configured, stderr is used instead and a
// warning is logged.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(ParseLevel(opts.Level))
	addSource := opts.Development || levelVar.Level() <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	paths := opts.OutputPaths
	if len(paths) == 0 && !opts.Syslog {
		paths = []string{"stderr"}
	}

	var handlers []slog.Handler
	var syslogErr error
	if opts.Syslog {
		w, err := dialSyslog(opts.SyslogTag)
		if err != nil {
			syslogErr = err
			if len(paths) == 0 {
				paths = []string{"stderr"}
			}
		} else {
			handlers = append(handlers, newSyslogHandler(w, levelVar))
		}
	}

	writer, err := openWriters(paths)
	if err != nil {
		return nil, err
	}
	if writer != nil {
		handlers = append(handlers, newStreamHandler(format, writer, levelVar, addSource))
	}

	logger := slog.New(newFanoutHandler(handlers...))
	if syslogErr != nil {
		WarnWithContext(logger, "syslog unavailable", EventLoggingFallback,
			Error(syslogErr),
			String(FieldErrorHint, "check that a syslog daemon is listening on /dev/log"),
			String(FieldImpact, "log records only reach the remaining outputs"),
		)
	}
	return logger, nil
}

// NewFromConfig creates a logger from the logging section of cfg. Foreground
// mode mirrors records to stdout in addition to syslog.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", OutputPaths: []string{"stderr"}})
	}

	var outputs []string
	if cfg.Foreground {
		outputs = append(outputs, "stdout")
	}
	if cfg.Logging.File != "" {
		outputs = append(outputs, cfg.Logging.File)
	}

	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Syslog:      cfg.Logging.Syslog,
		SyslogTag:   cfg.Logging.SyslogTag,
	})
}

func newStreamHandler(format string, w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	if format == "json" {
		return newJSONHandler(w, lvl, addSource)
	}
	return newPrettyHandler(w, lvl, addSource)
}

func openWriters(paths []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer

	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if dir := filepath.Dir(trimmed); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("ensure log directory: %w", err)
				}
			}
			file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return nil, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}
