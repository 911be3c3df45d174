package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Watch contains the crash directory subscription settings.
type Watch struct {
	Dir                   string   `toml:"dir"`
	Suffix                string   `toml:"suffix"`
	Events                []string `toml:"events"`
	BufferEvents          int      `toml:"buffer_events"`
	SubscribeAttempts     int      `toml:"subscribe_attempts"`
	SubscribeDelaySeconds int      `toml:"subscribe_delay_seconds"`
	DispatchExisting      bool     `toml:"dispatch_existing"`
}

// Reporter contains configuration for the external bug-reporting command.
type Reporter struct {
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	SkipSeen       bool     `toml:"skip_seen"`
}

// Guard contains configuration for the single-instance check.
type Guard struct {
	Mode        string `toml:"mode"`
	ProgramName string `toml:"program_name"`
	LockPath    string `toml:"lock_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format    string `toml:"format"`
	Level     string `toml:"level"`
	File      string `toml:"file"`
	Syslog    bool   `toml:"syslog"`
	SyslogTag string `toml:"syslog_tag"`
}

// Config encapsulates all configuration values for crashnotifyd.
//
// Configuration sections by subsystem:
//   - Watch: crash directory, report suffix and trigger events
//   - Reporter: bug-reporting command and its arguments
//   - Guard: single-instance strategy
//   - Logging: log format, level and syslog routing
type Config struct {
	Watch    Watch    `toml:"watch"`
	Reporter Reporter `toml:"reporter"`
	Guard    Guard    `toml:"guard"`
	Logging  Logging  `toml:"logging"`

	// Foreground mirrors logs to stdout. Set from the command line only.
	Foreground bool `toml:"-"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/crashnotify/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("crashnotify.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// SetWatchDir overrides the watch directory, typically from a command line flag.
func (c *Config) SetWatchDir(dir string) error {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil
	}
	expanded, err := expandPath(trimmed)
	if err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}
	c.Watch.Dir = expanded
	return nil
}

// SetLogLevel overrides the configured log level after validating it.
func (c *Config) SetLogLevel(level string) error {
	trimmed := strings.ToLower(strings.TrimSpace(level))
	if trimmed == "" {
		return nil
	}
	if !isKnownLogLevel(trimmed) {
		return fmt.Errorf("log level: unsupported value %q", level)
	}
	c.Logging.Level = trimmed
	return nil
}

// SubscribeDelay returns the initial delay between subscription attempts.
func (c *Config) SubscribeDelay() time.Duration {
	return time.Duration(c.Watch.SubscribeDelaySeconds) * time.Second
}

// ReporterTimeout returns the maximum runtime of one reporter invocation.
// Zero means no limit.
func (c *Config) ReporterTimeout() time.Duration {
	return time.Duration(c.Reporter.TimeoutSeconds) * time.Second
}

func defaultLockPath(program string) string {
	name := program + ".lock"
	if base, ok := os.LookupEnv("XDG_RUNTIME_DIR"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, name)
	}
	return filepath.Join(os.TempDir(), program+"-"+strconv.Itoa(os.Getuid())+".lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
