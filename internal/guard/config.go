package guard

import (
	"fmt"

	"crashnotify/internal/config"
)

// FromConfig builds the guard selected by cfg.Mode. Process scanning skips
// command lines rejected by exclude.
func FromConfig(cfg config.Guard, exclude func(cmdline []string) bool) (Guard, error) {
	scan := NewScanGuard(cfg.ProgramName)
	scan.Exclude = exclude
	file := &FileGuard{Path: cfg.LockPath}

	switch cfg.Mode {
	case config.GuardModeProcess:
		return scan, nil
	case config.GuardModeLock:
		return file, nil
	case config.GuardModeBoth, "":
		return Chain(scan, file), nil
	default:
		return nil, fmt.Errorf("guard: unsupported mode %q", cfg.Mode)
	}
}
