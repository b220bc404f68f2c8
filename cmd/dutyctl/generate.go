package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arnavshah/duty-roster-go/pkg/export"
	"github.com/arnavshah/duty-roster-go/pkg/models"
	"github.com/arnavshah/duty-roster-go/pkg/scheduler"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var (
		year   int
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the schedule for a year",
		Example: `  dutyctl generate --year 2026 --format csv --out roster.csv
  dutyctl generate --roster people.yaml --format ics --out duties.ics`,
		Args: cobra.NoArgs,
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
			if len(res.Conflicts) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d shift(s) could not be fully staffed\n", len(res.Conflicts))
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return render(w, format, res, persons)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "planning year (default DEFAULT_YEAR)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, csv, xlsx or ics")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func render(w io.Writer, format string, res scheduler.Result, persons []models.Person) error {
	switch format {
	case "json":
		stats := scheduler.Stats(res.Schedule, persons)
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(models.ScheduleResponse{
			Schedule:      res.Schedule,
			Conflicts:     res.Conflicts,
			Stats:         stats,
			FairnessScore: scheduler.FairnessScore(stats),
		})
	case "csv":
		return export.CSV(w, res.Schedule, persons)
	case "xlsx":
		buf, err := export.XLSX(res.Schedule, persons)
		if err != nil {
			return err
		}
		_, err = buf.WriteTo(w)
		return err
	case "ics":
		_, err := io.WriteString(w, export.ICS(res.Schedule, persons, time.Now()))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
