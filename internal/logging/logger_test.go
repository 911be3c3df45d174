package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crashnotify/internal/config"
	"crashnotify/internal/logging"
)

func newFileLogger(t *testing.T, format, level string) (func() string, *logging.Options) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "crashnotifyd.log")
	opts := &logging.Options{Format: format, Level: level, OutputPaths: []string{logPath}}
	read := func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
	return read, opts
}

func TestNewFromConfigWritesFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Syslog = false
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "crashnotifyd.log")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon started")

	content, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "INFO daemon started") {
		t.Fatalf("unexpected log content: %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	read, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")
	if strings.Contains(read(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", read())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	read, opts := newFileLogger(t, "console", "debug")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")
	if !strings.Contains(read(), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", read())
	}
}

func TestConsoleLoggerRendersNoticeAndComponent(t *testing.T) {
	read, opts := newFileLogger(t, "console", "notice")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	component := logging.NewComponentLogger(logger, "dispatch")
	component.Info("hidden below notice")
	logging.Notice(component, "report dispatched", logging.String(logging.FieldMask, "IN_CLOSE_WRITE"))

	out := read()
	if strings.Contains(out, "hidden below notice") {
		t.Fatalf("info record should be filtered at notice level: %q", out)
	}
	if !strings.Contains(out, "NOTICE dispatch: report dispatched mask=IN_CLOSE_WRITE") {
		t.Fatalf("unexpected notice line: %q", out)
	}
}

func TestJSONLoggerLevelNames(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WithContext(logging.WithDispatchID(context.Background(), "id-1"), logger).
		Log(context.Background(), logging.LevelNotice, "dispatch")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "notice" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload[logging.FieldDispatchID] != "id-1" {
		t.Fatalf("missing dispatch id: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key: %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "queue overflow", logging.EventWatchOverflow,
		logging.String(logging.FieldImpact, "events were dropped"))

	out := read()
	for _, want := range []string{
		`"event_type":"watch_overflow"`,
		`"error_hint":"check logs for details"`,
		`"impact":"events were dropped"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":  "DEBUG",
		"notice": "INFO+2",
		"WARN":   "WARN",
		"error":  "ERROR",
		"":       "INFO",
		"bogus":  "INFO",
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in).String(); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
