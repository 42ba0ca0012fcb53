package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wdm0006/rangerimpute/pkg/config"
	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	"github.com/wdm0006/rangerimpute/pkg/impute"
	"github.com/wdm0006/rangerimpute/pkg/metrics"
	"github.com/wdm0006/rangerimpute/pkg/runlog"
)

type imputeFlags struct {
	input, output string
	formula       string
	learner       string
	weights       string
	maxDuration   time.Duration
	pmmK, maxIter int
	imputations   int
	tolerance     float64
	seed          int64
	runlog        string
	metrics       string
}

func newImputeCmd(a *app) *cobra.Command {
	fl := &imputeFlags{}
	cmd := &cobra.Command{
		Use:   "impute",
		Short: "Fill missing values with chained-equation forest imputation",
		Example: `  rangerimpute impute -i data.csv -o filled.csv --formula ". ~ . - id" --pmm-k 3
  rangerimpute impute -c run.yaml --imputations 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fl.apply(cmd, a.file)
			return runImpute(cmd.Context(), a.file, a.log, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&fl.input, "input", "i", "", "input dataset (csv, jsonl or parquet; - for stdin)")
	f.StringVarP(&fl.output, "output", "o", "", "output dataset (- for stdout)")
	f.StringVar(&fl.formula, "formula", "", `targets ~ predictors, e.g. ". ~ . - id"`)
	f.StringVar(&fl.learner, "learner", "", "auto (forests) or ridge (forests for classes, ridge otherwise)")
	f.StringVar(&fl.weights, "weights", "", "numeric column with case weights")
	f.DurationVar(&fl.maxDuration, "max-duration", 0, "stop after the first pass past this wall time")
	f.IntVar(&fl.pmmK, "pmm-k", 0, "predictive mean matching donors (0 disables)")
	f.IntVar(&fl.maxIter, "max-iter", 0, "maximum passes")
	f.IntVar(&fl.imputations, "imputations", 0, "number of completed datasets to produce")
	f.Float64Var(&fl.tolerance, "tolerance", 0, "smallest error decrease counted as improvement")
	f.Int64Var(&fl.seed, "seed", 0, "random seed")
	f.StringVar(&fl.runlog, "runlog", "", "SQLite database recording run history")
	f.StringVar(&fl.metrics, "metrics", "", "write Prometheus textfile metrics here")
	return cmd
}

// apply copies every flag set on the command line over the run file.
func (fl *imputeFlags) apply(cmd *cobra.Command, f *config.File) {
	set := cmd.Flags().Changed
	if set("input") {
		f.Input.Path = fl.input
	}
	if set("output") {
		f.Output.Path = fl.output
	}
	if set("formula") {
		f.Impute.Formula = fl.formula
	}
	if set("learner") {
		f.Impute.Learner = fl.learner
	}
	if set("weights") {
		f.Impute.Weights = fl.weights
	}
	if set("max-duration") {
		f.Impute.MaxDuration = fl.maxDuration.String()
	}
	if set("pmm-k") {
		f.Impute.PMMK = fl.pmmK
	}
	if set("max-iter") {
		f.Impute.MaxIter = fl.maxIter
	}
	if set("imputations") {
		f.Impute.Imputations = fl.imputations
	}
	if set("tolerance") {
		f.Impute.Tolerance = fl.tolerance
	}
	if set("seed") {
		f.Impute.Seed = fl.seed
	}
	if set("runlog") {
		f.RunLog = fl.runlog
	}
	if set("metrics") {
		f.Metrics = fl.metrics
	}
}

func runImpute(ctx context.Context, file *config.File, log zerolog.Logger, out io.Writer) error {
	if file.Input.Path == "" {
		return ierr.Wrap(ierr.ErrInvalidConfig, "no input dataset; pass --input or set input.path")
	}
	if file.Output.Path == "" {
		file.Output.Path = "-"
	}
	if file.Impute.Imputations > 1 && file.Output.Path == "-" {
		return ierr.Wrap(ierr.ErrInvalidConfig, "multiple imputations need an output path")
	}
	types, err := file.ColumnTypes()
	if err != nil {
		return err
	}
	frame, err := readFrame(file.Input, types)
	if err != nil {
		return err
	}
	log.Info().Str("input", file.Input.Path).Int("rows", frame.Rows()).Int("cols", frame.Cols()).Msg("dataset loaded")

	steps, err := file.Pipeline(rand.New(rand.NewSource(file.Impute.Seed)))
	if err != nil {
		return err
	}
	if steps.Len() > 0 {
		if frame, err = steps.Run(ctx, frame); err != nil {
			return err
		}
	}

	cfg, err := file.Impute.Config()
	if err != nil {
		return err
	}
	if cfg.CaseWeights, err = file.Impute.CaseWeights(frame); err != nil {
		return err
	}
	cfg.Logger = log
	cfg.Reporters = append(cfg.Reporters, impute.LogReporter{Logger: log, Level: zerolog.DebugLevel})

	if file.RunLog != "" {
		store, err := runlog.Open(file.RunLog)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		store.Source = file.Input.Path
		cfg.Reporters = append(cfg.Reporters, store)
	}
	var rec *metrics.Recorder
	if file.Metrics != "" {
		rec = metrics.New()
		cfg.Reporters = append(cfg.Reporters, rec)
	}

	var results []*impute.Result
	if m := file.Impute.Imputations; m > 1 {
		results, err = impute.Multiple(ctx, frame, cfg.Formula, m, cfg)
	} else {
		var res *impute.Result
		if res, err = impute.New(cfg).Run(ctx, frame, cfg.Formula); err == nil {
			results = []*impute.Result{res}
		}
	}
	if rec != nil {
		if werr := rec.WriteTextfile(file.Metrics); werr != nil {
			log.Warn().Err(werr).Str("path", file.Metrics).Msg("writing metrics failed")
		}
	}
	if err != nil {
		return err
	}

	for i, res := range results {
		dst := file.Output
		if len(results) > 1 {
			dst.Path = numbered(dst.Path, i+1)
		}
		if err := writeFrame(dst, res.Frame); err != nil {
			return err
		}
		if dst.Path != "-" {
			fmt.Fprintln(out, summary(res, dst.Path))
		}
	}
	return nil
}

func summary(res *impute.Result, path string) string {
	s := fmt.Sprintf("%s: %s after %d passes", path, res.State, len(res.Iterations))
	if res.Best > 0 {
		s += fmt.Sprintf(", best pass %d error %.4g", res.Best, res.BestError)
	}
	if res.Reason != nil {
		s += fmt.Sprintf(" (%v)", res.Reason)
	}
	return s
}
