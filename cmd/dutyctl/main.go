// Command dutyctl generates, validates and summarizes duty rosters offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arnavshah/duty-roster-go/pkg/config"
	"github.com/arnavshah/duty-roster-go/pkg/logger"
	"github.com/arnavshah/duty-roster-go/pkg/models"
	"github.com/arnavshah/duty-roster-go/pkg/roster"
)

type options struct {
	rosterPath string
	verbose    bool
	log        *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "dutyctl",
		Short:         "Plan and check the yearly duty roster",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.verbose {
				return nil
			}
			l, err := logger.New("debug", "console")
			if err != nil {
				return err
			}
			opts.log = l
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.rosterPath, "roster", "", "roster file (YAML or JSON); embedded roster when empty")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log under-filled shifts")

	root.AddCommand(newGenerateCmd(opts), newValidateCmd(opts), newStatsCmd(opts))
	return root
}

func (o *options) persons() ([]models.Person, error) {
	return roster.FromPath(o.rosterPath)
}

// resolveYear falls back to DEFAULT_YEAR when no --year was given
func resolveYear(year int) (int, error) {
	if year != 0 {
		return year, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return 0, err
	}
	return cfg.DefaultYear, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
