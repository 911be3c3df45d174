package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Result describes one finished reporter invocation.
type Result struct {
	ExitCode int
	Output   string
	Duration time.Duration
}

// Runner spawns name with args and waits for it to exit. A non-zero exit is
// reported through the error as well as Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) (Result, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) (Result, error) {
	return f(ctx, name, args...)
}

// ExecRunner runs the reporter as a child process. A positive Timeout kills
// the reporter once it elapses.
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	result := Result{
		ExitCode: -1,
		Output:   strings.TrimSpace(string(output)),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s: %w", name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, fmt.Errorf("%s: exit status %d", name, result.ExitCode)
	}
	return result, fmt.Errorf("%s: %w", name, err)
}
