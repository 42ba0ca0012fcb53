package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wdm0006/rangerimpute/pkg/config"
	"github.com/wdm0006/rangerimpute/pkg/logging"
)

// app carries state shared by every subcommand: the loaded run file with
// flag overrides applied, and the logger built from it.
type app struct {
	configPath string
	logLevel   string
	file       *config.File
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "rangerimpute",
		Short:         "Impute missing values in tabular data with chained random-forest models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "run file (json, yaml or toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newImputeCmd(a),
		newAmputeCmd(a),
		newProfileCmd(a),
		newRunsCmd(a),
		newBenchCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "rangerimpute", version)
			},
		},
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	a.file = config.Default()
	if a.configPath != "" {
		f, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.file = f
	}
	if a.logLevel != "" {
		a.file.Log.Level = a.logLevel
	}
	a.log = logging.New(a.file.Log.Level, cmd.ErrOrStderr())
	return nil
}
