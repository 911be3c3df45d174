package guard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Process is one entry of the process table as seen by the guard.
type Process struct {
	PID     int32
	UID     int32
	Cmdline []string
}

// ProcessTable lists processes visible to the caller.
type ProcessTable interface {
	// PIDs fails when the table cannot be enumerated at all.
	PIDs(ctx context.Context) ([]int32, error)
	// Lookup may fail for processes that exited after enumeration.
	Lookup(ctx context.Context, pid int32) (Process, error)
}

// SystemTable reads the host process table through gopsutil.
type SystemTable struct{}

func (SystemTable) PIDs(ctx context.Context) ([]int32, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}
	return pids, nil
}

func (SystemTable) Lookup(ctx context.Context, pid int32) (Process, error) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return Process{}, err
	}
	uids, err := proc.UidsWithContext(ctx)
	if err != nil {
		return Process{}, err
	}
	if len(uids) == 0 {
		return Process{}, fmt.Errorf("process %d: no uids", pid)
	}
	cmdline, err := proc.CmdlineSliceWithContext(ctx)
	if err != nil {
		return Process{}, err
	}
	// /proc/<pid> is owned by the effective uid.
	uid := uids[0]
	if len(uids) > 1 {
		uid = uids[1]
	}
	return Process{PID: pid, UID: uid, Cmdline: cmdline}, nil
}

// ScanGuard looks for another process owned by the same user whose argv[0]
// contains Program. It holds nothing after the check, so an instance started
// right after the scan can still race in; pair it with a FileGuard to close
// that window.
type ScanGuard struct {
	Table   ProcessTable
	Program string
	SelfPID int32
	UID     int32
	// Exclude skips matching processes that are not daemons, such as
	// short-lived status invocations of the same binary.
	Exclude func(cmdline []string) bool
}

// NewScanGuard returns a guard for the current process and real user.
func NewScanGuard(program string) *ScanGuard {
	return &ScanGuard{
		Table:   SystemTable{},
		Program: program,
		SelfPID: int32(os.Getpid()),
		UID:     int32(os.Getuid()),
	}
}

// Find returns every other matching process owned by the guard's user.
func (g *ScanGuard) Find(ctx context.Context) ([]Process, error) {
	if g.Table == nil {
		return nil, errors.New("scan guard: no process table")
	}
	if strings.TrimSpace(g.Program) == "" {
		return nil, errors.New("scan guard: empty program name")
	}

	pids, err := g.Table.PIDs(ctx)
	if err != nil {
		return nil, err
	}

	var found []Process
	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pid == g.SelfPID {
			continue
		}
		proc, err := g.Table.Lookup(ctx, pid)
		if err != nil {
			continue
		}
		if proc.UID != g.UID || !g.matches(proc.Cmdline) {
			continue
		}
		found = append(found, proc)
	}
	return found, nil
}

func (g *ScanGuard) matches(cmdline []string) bool {
	if len(cmdline) == 0 || !strings.Contains(cmdline[0], g.Program) {
		return false
	}
	if g.Exclude != nil && g.Exclude(cmdline) {
		return false
	}
	return true
}

// Acquire fails with ErrAlreadyRunning if Find reports any process.
func (g *ScanGuard) Acquire(ctx context.Context) (Lock, error) {
	found, err := g.Find(ctx)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, found[0].PID)
	}
	return nopLock{}, nil
}
