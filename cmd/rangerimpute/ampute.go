package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/wdm0006/rangerimpute/pkg/ampute"
	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

func newAmputeCmd(a *app) *cobra.Command {
	var (
		input, output string
		prob          float64
		columns       []string
		perColumn     map[string]string
		seed          int64
		chunk         int
	)
	cmd := &cobra.Command{
		Use:   "ampute",
		Short: "Blank out random cells to produce test data for imputation",
		Example: `  rangerimpute ampute -i iris.csv -o iris_na.csv --prob 0.1
  rangerimpute ampute -i big.parquet -o big_na.parquet --col petal_width=0.3 --chunk-size 50000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, dst := a.file.Input, a.file.Output
			if cmd.Flags().Changed("input") {
				src.Path = input
			}
			if cmd.Flags().Changed("output") {
				dst.Path = output
			}
			if cmd.Flags().Changed("chunk-size") {
				src.ChunkSize = chunk
			}
			if src.Path == "" {
				return fmt.Errorf("ampute: no input dataset")
			}
			if dst.Path == "" {
				dst.Path = "-"
			}
			opt := ampute.Options{Prob: prob, Columns: columns, PerColumn: map[string]float64{}}
			for name, v := range perColumn {
				p, err := cast.ToFloat64E(v)
				if err != nil {
					return fmt.Errorf("ampute: --col %s=%s: %w", name, v, err)
				}
				opt.PerColumn[name] = p
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.file.Impute.Seed
			}
			types, err := a.file.ColumnTypes()
			if err != nil {
				return err
			}
			in, schema, closer, err := openStream(src, types)
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()
			sink, err := createSink(dst, schema)
			if err != nil {
				return err
			}
			p := df.NewPipeline(&ampute.Transform{Options: opt, Rand: rand.New(rand.NewSource(seed))})
			rows, err := df.RunStream(cmd.Context(), p, in, sink)
			if err != nil {
				return err
			}
			a.log.Info().Int("rows", rows).Str("output", dst.Path).Msg("ampute finished")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "input dataset")
	f.StringVarP(&output, "output", "o", "", "output dataset (- for stdout)")
	f.Float64Var(&prob, "prob", 0.1, "probability of blanking each targeted cell")
	f.StringSliceVar(&columns, "columns", nil, "columns to ampute (default all)")
	f.StringToStringVar(&perColumn, "col", nil, "per-column probability, name=p")
	f.Int64Var(&seed, "seed", 0, "random seed (default impute.seed of the run file)")
	f.IntVar(&chunk, "chunk-size", 0, "rows per chunk")
	return cmd
}
