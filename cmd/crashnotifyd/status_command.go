package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"crashnotify/internal/config"
	"crashnotify/internal/crashreport"
	"crashnotify/internal/deps"
	"crashnotify/internal/guard"
	"crashnotify/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show instance, watch directory and reporter status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			scan := guard.NewScanGuard(cfg.Guard.ProgramName)
			scan.Exclude = clientInvocation(cmd.Root())

			var lines []string
			lines = append(lines, renderSectionHeader("Instance", colorize)...)
			lines = append(lines, instanceLines(cmd.Context(), cfg, scan, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Watch", colorize)...)
			lines = append(lines, watchLines(cfg, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(deps.CheckBinaries(deps.ReporterRequirements(cfg)), colorize)...)
			if ctx.configSeen {
				lines = append(lines, "", "Config: "+ctx.configPath)
			} else {
				lines = append(lines, "", "Config: defaults (no file at "+ctx.configPath+")")
			}
			return writeLines(out, lines)
		},
	}
}

func instanceLines(ctx context.Context, cfg *config.Config, scan *guard.ScanGuard, colorize bool) []string {
	var lines []string
	mode := cfg.Guard.Mode

	if mode == config.GuardModeLock {
		lines = append(lines, renderStatusLine("Process scan", statusInfo, "disabled (guard mode lock)", colorize))
	} else {
		found, err := scan.Find(ctx)
		switch {
		case err != nil:
			lines = append(lines, renderStatusLine("Process scan", statusError, err.Error(), colorize))
		case len(found) == 0:
			lines = append(lines, renderStatusLine("Process scan", statusInfo, "no running instance", colorize))
		default:
			pids := make([]string, 0, len(found))
			for _, p := range found {
				pids = append(pids, strconv.Itoa(int(p.PID)))
			}
			lines = append(lines, renderStatusLine("Process scan", statusOK, "running (pid "+strings.Join(pids, ", ")+")", colorize))
		}
	}

	if mode == config.GuardModeProcess {
		lines = append(lines, renderStatusLine("Lock file", statusInfo, "disabled (guard mode process)", colorize))
		return lines
	}
	held, err := guard.Held(cfg.Guard.LockPath)
	switch {
	case err != nil:
		lines = append(lines, renderStatusLine("Lock file", statusError, err.Error(), colorize))
	case held:
		msg := "held " + cfg.Guard.LockPath
		if pid, ok := guard.ReadLockPID(cfg.Guard.LockPath); ok {
			msg = fmt.Sprintf("held by pid %d (%s)", pid, cfg.Guard.LockPath)
		}
		lines = append(lines, renderStatusLine("Lock file", statusOK, msg, colorize))
	default:
		lines = append(lines, renderStatusLine("Lock file", statusInfo, "free "+cfg.Guard.LockPath, colorize))
	}
	return lines
}

func watchLines(cfg *config.Config, colorize bool) []string {
	var lines []string
	for _, result := range preflight.RunAll(cfg) {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	lines = append(lines,
		renderStatusLine("Trigger", statusInfo, strings.Join(cfg.Watch.Events, ", "), colorize),
		renderStatusLine("Suffix", statusInfo, cfg.Watch.Suffix, colorize),
		renderStatusLine("Dispatch existing", statusInfo, yesNo(cfg.Watch.DispatchExisting), colorize),
	)
	reports, err := crashreport.List(cfg.Watch.Dir, cfg.Watch.Suffix)
	if err != nil {
		return lines
	}
	unseen := len(crashreport.Unseen(reports))
	kind := statusInfo
	if unseen > 0 {
		kind = statusWarn
	}
	return append(lines, renderStatusLine("Reports", kind, fmt.Sprintf("%d total, %d unseen", len(reports), unseen), colorize))
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
