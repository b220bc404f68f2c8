package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arnavshah/duty-roster-go/pkg/models"
	"github.com/arnavshah/duty-roster-go/pkg/validator"
)

var errRulesFailed = errors.New("schedule breaks at least one rule")

func newValidateCmd(opts *options) *cobra.Command {
	var (
		schedulePath string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a schedule file against the roster rules",
		Long: `Reads a schedule as written by "dutyctl generate --format json" (or a bare
{year, shifts} document) and prints one finding per rule. Exits non-zero when
any rule fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := readSchedule(schedulePath)
			if err != nil {
				return err
			}
			persons, err := opts.persons()
			if err != nil {
				return err
			}

			findings, err := validator.Validate(schedule, persons)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(findings); err != nil {
					return err
				}
			} else {
				printFindings(w, findings)
			}

			for _, f := range findings {
				if !f.Passed() {
					return errRulesFailed
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&schedulePath, "schedule", "s", "", "schedule JSON file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print findings as JSON")
	_ = cmd.MarkFlagRequired("schedule")
	return cmd
}

func readSchedule(path string) (models.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Schedule{}, err
	}

	var wrapped struct {
		Schedule *models.Schedule `json:"schedule"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return models.Schedule{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if wrapped.Schedule != nil {
		return *wrapped.Schedule, nil
	}

	var schedule models.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return models.Schedule{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return schedule, nil
}

func printFindings(w io.Writer, findings []models.Finding) {
	for _, f := range findings {
		fmt.Fprintf(w, "[%s] %s: %s\n", f.Status, f.Rule, f.Summary)
		for _, v := range f.Violations {
			fmt.Fprintf(w, "    - %s\n", v.Message)
		}
	}
}
