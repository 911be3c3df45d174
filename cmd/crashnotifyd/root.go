package main

import (
	"github.com/spf13/cobra"

	"crashnotify/internal/daemonrun"
)

func newRootCommand() *cobra.Command {
	var flags rootFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "crashnotifyd",
		Short:         "Dispatch new crash reports to a bug-reporting tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				IsClient: clientInvocation(cmd.Root()),
			})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.watchDir, "watch-dir", "", "Crash directory to watch (overrides config and environment)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, notice, warn, error")
	rootCmd.Flags().BoolVar(&flags.foreground, "foreground", false, "Also write logs to stdout")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newReportsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// clientInvocation returns a matcher for command lines of this binary that
// resolve to a subcommand. Flag values are consumed the way cobra parses
// them, so "-c status" still names the daemon.
func clientInvocation(root *cobra.Command) func(cmdline []string) bool {
	return func(cmdline []string) bool {
		if len(cmdline) < 2 {
			return false
		}
		found, _, err := root.Find(cmdline[1:])
		return err == nil && found != nil && found != root
	}
}
