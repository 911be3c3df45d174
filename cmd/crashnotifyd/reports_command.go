package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"crashnotify/internal/crashreport"
)

const reportTimeLayout = "2006-01-02 15:04:05"

func newReportsCommand(ctx *commandContext) *cobra.Command {
	var unseenOnly bool
	var markSeen bool

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List crash reports in the watch directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reports, err := crashreport.List(cfg.Watch.Dir, cfg.Watch.Suffix)
			if err != nil {
				return err
			}
			if unseenOnly || markSeen {
				reports = crashreport.Unseen(reports)
			}

			out := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprintf(out, "No crash reports in %s\n", cfg.Watch.Dir)
				return nil
			}

			if markSeen {
				for _, r := range reports {
					if err := crashreport.MarkSeen(r.Path); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "Marked %d report(s) as seen\n", len(reports))
				return nil
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Size", "Modified", "Seen"},
				reportRows(reports),
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unseenOnly, "unseen", false, "Only list reports not yet processed")
	cmd.Flags().BoolVar(&markSeen, "mark-seen", false, "Mark every unseen report as processed instead of listing")
	return cmd
}

func reportRows(reports []crashreport.Report) [][]string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Name,
			strconv.FormatInt(r.Size, 10),
			r.ModTime.In(time.Local).Format(reportTimeLayout),
			yesNo(r.Seen),
		})
	}
	return rows
}
