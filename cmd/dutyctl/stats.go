package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arnavshah/duty-roster-go/pkg/scheduler"
)

func newStatsCmd(opts *options) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per-person shift counts for a generated year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			y, err := resolveYear(year)
			if err != nil {
				return err
			}
			persons, err := opts.persons()
			if err != nil {
				return err
			}

			res, err := scheduler.GenerateSchedule(y, persons, scheduler.WithLogger(opts.log))
			if err != nil {
				return err
			}
			stats := scheduler.Stats(res.Schedule, persons)
			months := res.Schedule.Months()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "NAME\tTOTAL\t%s\n", strings.Join(months, "\t"))
			for _, s := range stats {
				cells := make([]string, len(months))
				for i, m := range months {
					cells[i] = fmt.Sprint(s.ByMonth[m])
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Name, s.Total, strings.Join(cells, "\t"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nShifts: %d  Under-filled: %d  Fairness score: %.1f\n",
				len(res.Schedule.Shifts), len(res.Conflicts), scheduler.FairnessScore(stats))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "planning year (default DEFAULT_YEAR)")
	return cmd
}
