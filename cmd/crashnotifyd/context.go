package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"crashnotify/internal/config"
)

type rootFlags struct {
	config     string
	watchDir   string
	logLevel   string
	foreground bool
}

type commandContext struct {
	flags *rootFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once and applies command line
// overrides on top of the file and environment.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.SetWatchDir(c.flags.watchDir); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.SetLogLevel(c.flags.logLevel); err != nil {
			c.configErr = err
			return
		}
		cfg.Foreground = c.flags.foreground
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
	})
	if c.configErr != nil {
		return nil, fmt.Errorf("load config: %w", c.configErr)
	}
	return c.config, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
