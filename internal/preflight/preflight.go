package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"crashnotify/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Access modes accepted by CheckDirectoryAccess.
const (
	AccessRead  = unix.R_OK | unix.X_OK
	AccessWrite = unix.W_OK | unix.X_OK
)

// RunAll executes the filesystem checks that apply to cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Watch directory", cfg.Watch.Dir, AccessRead)}

	if cfg.Guard.Mode != config.GuardModeProcess && strings.TrimSpace(cfg.Guard.LockPath) != "" {
		results = append(results, CheckLockDirectory(cfg.Guard.LockPath))
	}
	return results
}

// CheckDirectoryAccess verifies that path is a directory the current user can
// use with the given access mode.
func CheckDirectoryAccess(name, path string, mode uint32) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s ok)", path, accessLabel(mode))}
}

// CheckLockDirectory verifies the lock file can be created. A missing parent
// passes when its nearest existing ancestor is writable, since the guard
// creates it on demand.
func CheckLockDirectory(lockPath string) Result {
	const name = "Lock directory"
	dir := filepath.Dir(lockPath)
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return CheckDirectoryAccess(name, dir, AccessWrite)
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func accessLabel(mode uint32) string {
	switch {
	case mode&unix.W_OK != 0 && mode&unix.R_OK != 0:
		return "read/write"
	case mode&unix.W_OK != 0:
		return "write"
	default:
		return "read"
	}
}
