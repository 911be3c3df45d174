package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"crashnotify/internal/inotify"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateReporter(); err != nil {
		return err
	}
	if err := c.validateGuard(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWatch() error {
	if !filepath.IsAbs(c.Watch.Dir) {
		return fmt.Errorf("watch.dir must be an absolute path, got %q", c.Watch.Dir)
	}
	if strings.ContainsAny(c.Watch.Suffix, "/\x00") {
		return fmt.Errorf("watch.suffix must not contain path separators or NUL bytes, got %q", c.Watch.Suffix)
	}
	if _, err := inotify.ParseMask(c.Watch.Events); err != nil {
		return fmt.Errorf("watch.events: %w", err)
	}
	return nil
}

func (c *Config) validateReporter() error {
	if c.Reporter.TimeoutSeconds < 0 {
		return errors.New("reporter.timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateGuard() error {
	switch c.Guard.Mode {
	case GuardModeProcess, GuardModeLock, GuardModeBoth:
	default:
		return fmt.Errorf("guard.mode must be one of %q, %q or %q, got %q", GuardModeProcess, GuardModeLock, GuardModeBoth, c.Guard.Mode)
	}
	if strings.ContainsRune(c.Guard.ProgramName, '/') {
		return fmt.Errorf("guard.program_name must be a bare program name, got %q", c.Guard.ProgramName)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	if !isKnownLogLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func isKnownLogLevel(level string) bool {
	switch level {
	case "debug", "info", "notice", "warn", "error":
		return true
	default:
		return false
	}
}
