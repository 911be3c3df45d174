package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeWatch(); err != nil {
		return err
	}
	c.normalizeReporter()
	if err := c.normalizeGuard(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeWatch() error {
	dir := strings.TrimSpace(c.Watch.Dir)
	if value, ok := os.LookupEnv(EnvWatchDir); ok && strings.TrimSpace(value) != "" {
		dir = strings.TrimSpace(value)
	}
	if dir == "" {
		if value, ok := os.LookupEnv(EnvReportDir); ok && strings.TrimSpace(value) != "" {
			dir = strings.TrimSpace(value)
		}
	}
	if dir == "" {
		dir = defaultWatchDir
	}
	expanded, err := expandPath(dir)
	if err != nil {
		return fmt.Errorf("watch.dir: %w", err)
	}
	c.Watch.Dir = expanded

	if c.Watch.Suffix == "" {
		c.Watch.Suffix = defaultSuffix
	}

	events := make([]string, 0, len(c.Watch.Events))
	seen := make(map[string]struct{}, len(c.Watch.Events))
	for _, name := range c.Watch.Events {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		events = append(events, normalized)
	}
	if len(events) == 0 {
		events = []string{"close_write"}
	}
	c.Watch.Events = events

	if c.Watch.BufferEvents <= 0 {
		c.Watch.BufferEvents = defaultBufferEvents
	}
	if c.Watch.SubscribeAttempts <= 0 {
		c.Watch.SubscribeAttempts = defaultSubscribeAttempts
	}
	if c.Watch.SubscribeDelaySeconds <= 0 {
		c.Watch.SubscribeDelaySeconds = defaultSubscribeDelaySeconds
	}
	return nil
}

func (c *Config) normalizeReporter() {
	c.Reporter.Command = strings.TrimSpace(c.Reporter.Command)
	if c.Reporter.Command == "" {
		c.Reporter.Command = defaultReporterCommand
	}
	args := c.Reporter.Args[:0]
	for _, arg := range c.Reporter.Args {
		if arg == "" {
			continue
		}
		args = append(args, arg)
	}
	c.Reporter.Args = args
}

func (c *Config) normalizeGuard() error {
	c.Guard.Mode = strings.ToLower(strings.TrimSpace(c.Guard.Mode))
	if c.Guard.Mode == "" {
		c.Guard.Mode = defaultGuardMode
	}
	c.Guard.ProgramName = strings.TrimSpace(c.Guard.ProgramName)
	if c.Guard.ProgramName == "" {
		c.Guard.ProgramName = defaultProgramName
	}
	lockPath := strings.TrimSpace(c.Guard.LockPath)
	if lockPath == "" {
		c.Guard.LockPath = defaultLockPath(c.Guard.ProgramName)
		return nil
	}
	expanded, err := expandPath(lockPath)
	if err != nil {
		return fmt.Errorf("guard.lock_path: %w", err)
	}
	c.Guard.LockPath = expanded
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.SyslogTag = strings.TrimSpace(c.Logging.SyslogTag)
	if c.Logging.SyslogTag == "" {
		c.Logging.SyslogTag = c.Guard.ProgramName
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
