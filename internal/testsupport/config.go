package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"crashnotify/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The watch directory exists, syslog is disabled and the guard lock lives
// under the temp root. Options are applied in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Watch.Dir = filepath.Join(base, "crash")
	cfgVal.Guard.LockPath = filepath.Join(base, "run", "crashnotifyd.lock")
	cfgVal.Logging.Syslog = false
	cfgVal.Logging.Level = "debug"

	for _, dir := range []string{cfgVal.Watch.Dir, filepath.Dir(cfgVal.Guard.LockPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSuffix overrides the report suffix.
func WithSuffix(suffix string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.Suffix = suffix
	}
}

// WithEvents overrides the trigger event names.
func WithEvents(events ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.Events = events
	}
}

// WithGuardMode overrides the single-instance strategy.
func WithGuardMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Guard.Mode = mode
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default reporter is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.Reporter.Command}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			writeExecutable(b.t, filepath.Join(binDir, name), script)
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithRecordingReporter installs a reporter script that appends its
// arguments, one invocation per line, to ReporterLog(cfg). The script exits
// with exitCode.
func WithRecordingReporter(exitCode int) ConfigOption {
	return func(b *configBuilder) {
		logPath := filepath.Join(b.baseDir, "reporter.log")
		target := filepath.Join(b.baseDir, "bin", "record-report")
		script := "#!/bin/sh\necho \"$*\" >> '" + logPath + "'\nexit " + strconv.Itoa(exitCode) + "\n"
		writeExecutable(b.t, target, []byte(script))
		b.cfg.Reporter.Command = target
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Watch.Dir)
}

// ReporterLog returns the path written by the recording reporter.
func ReporterLog(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "reporter.log")
}

// ReporterCalls returns the argument lines recorded so far.
func ReporterCalls(t testing.TB, cfg *config.Config) []string {
	t.Helper()
	data, err := os.ReadFile(ReporterLog(cfg))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read reporter log: %v", err)
	}
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func writeExecutable(t testing.TB, path string, body []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, body, 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
}
