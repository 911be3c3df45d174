package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"crashnotify/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvWatchDir, "")
	t.Setenv(config.EnvReportDir, "")
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(home, "run"))
	t.Chdir(home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "crashnotify", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if cfg.Watch.Dir != "/var/crash" {
		t.Fatalf("unexpected watch dir: %q", cfg.Watch.Dir)
	}
	if cfg.Watch.Suffix != ".crash" {
		t.Fatalf("unexpected suffix: %q", cfg.Watch.Suffix)
	}
	if len(cfg.Watch.Events) != 1 || cfg.Watch.Events[0] != "close_write" {
		t.Fatalf("unexpected events: %v", cfg.Watch.Events)
	}
	if cfg.Watch.BufferEvents != 10 {
		t.Fatalf("unexpected buffer events: %d", cfg.Watch.BufferEvents)
	}
	if cfg.Reporter.Command != "apport-bug" {
		t.Fatalf("unexpected reporter: %q", cfg.Reporter.Command)
	}
	if cfg.Guard.Mode != config.GuardModeBoth {
		t.Fatalf("unexpected guard mode: %q", cfg.Guard.Mode)
	}
	if want := filepath.Join(home, "run", "crashnotifyd.lock"); cfg.Guard.LockPath != want {
		t.Fatalf("unexpected lock path: got %q want %q", cfg.Guard.LockPath, want)
	}
	if !cfg.Logging.Syslog || cfg.Logging.SyslogTag != "crashnotifyd" {
		t.Fatalf("unexpected syslog settings: %+v", cfg.Logging)
	}
}

func TestLoadWatchDirPrecedence(t *testing.T) {
	home := isolateEnv(t)
	reportDir := filepath.Join(home, "reports")
	overrideDir := filepath.Join(home, "override")

	t.Setenv(config.EnvReportDir, reportDir)
	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Watch.Dir != reportDir {
		t.Fatalf("expected APPORT_REPORT_DIR fallback %q, got %q", reportDir, cfg.Watch.Dir)
	}

	fileDir := filepath.Join(home, "from-file")
	path := filepath.Join(home, "crashnotify.toml")
	if err := os.WriteFile(path, []byte("[watch]\ndir = \""+fileDir+"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Watch.Dir != fileDir {
		t.Fatalf("expected file value %q to beat APPORT_REPORT_DIR, got %q", fileDir, cfg.Watch.Dir)
	}

	t.Setenv(config.EnvWatchDir, overrideDir)
	cfg, _, _, err = config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Watch.Dir != overrideDir {
		t.Fatalf("expected env override %q, got %q", overrideDir, cfg.Watch.Dir)
	}

	flagDir := filepath.Join(home, "flag")
	if err := cfg.SetWatchDir(flagDir); err != nil {
		t.Fatalf("SetWatchDir: %v", err)
	}
	if cfg.Watch.Dir != flagDir {
		t.Fatalf("expected flag override %q, got %q", flagDir, cfg.Watch.Dir)
	}
}

func TestLoadFindsProjectConfig(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "crashnotify.toml")
	if err := os.WriteFile(path, []byte("[reporter]\ncommand = \"ubuntu-bug\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected project config %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Reporter.Command != "ubuntu-bug" {
		t.Fatalf("unexpected reporter command: %q", cfg.Reporter.Command)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown event", "[watch]\nevents = [\"close_write\", \"explode\"]\n", "watch.events"},
		{"suffix with separator", "[watch]\nsuffix = \"a/b\"\n", "watch.suffix"},
		{"guard mode", "[guard]\nmode = \"pidfile\"\n", "guard.mode"},
		{"program path", "[guard]\nprogram_name = \"/usr/bin/crashnotifyd\"\n", "guard.program_name"},
		{"log format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"log level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"timeout", "[reporter]\ntimeout_seconds = -1\n", "reporter.timeout_seconds"},
		{"unknown key", "[watch]\nrecursive = true\n", "parse config"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			home := isolateEnv(t)
			path := filepath.Join(home, "config.toml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadNormalizesEvents(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "config.toml")
	body := "[watch]\nevents = [\" CREATE \", \"close_write\", \"create\", \"\"]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []string{"create", "close_write"}
	if strings.Join(cfg.Watch.Events, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected events: got %v want %v", cfg.Watch.Events, want)
	}
}

func TestSetLogLevel(t *testing.T) {
	cfg := config.Default()
	if err := cfg.SetLogLevel(" DEBUG "); err != nil {
		t.Fatalf("SetLogLevel: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected level: %q", cfg.Logging.Level)
	}
	if err := cfg.SetLogLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if err := cfg.SetLogLevel(""); err != nil {
		t.Fatalf("empty level should be a no-op, got %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("empty level changed config: %q", cfg.Logging.Level)
	}
}

func TestCreateSampleParsesAndLoads(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed map[string]any
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Watch.Dir != "/var/crash" || cfg.Reporter.Command != "apport-bug" {
		t.Fatalf("sample config does not match defaults: %+v", cfg)
	}
}

func TestEncodeOmitsForeground(t *testing.T) {
	cfg := config.Default()
	cfg.Foreground = true
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(strings.ToLower(string(data)), "foreground") {
		t.Fatalf("foreground should not be serialized: %s", data)
	}
	if !strings.Contains(string(data), "[watch]") {
		t.Fatalf("expected watch section, got %s", data)
	}
}
