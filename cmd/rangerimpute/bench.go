package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/wdm0006/rangerimpute/pkg/ampute"
	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/impute"
)

type benchFlags struct {
	rows, fcols, ccols int
	missing            float64
	seed               int64
	asJSON             bool
}

func newBenchCmd(a *app) *cobra.Command {
	fl := &benchFlags{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Impute a synthetic dataset with known truth and report speed and error",
		RunE: func(cmd *cobra.Command, _ []string) error {
			truth := synthetic(fl, rand.New(rand.NewSource(fl.seed)))
			holed, err := ampute.GenerateNA(truth, ampute.Options{Prob: fl.missing}, rand.New(rand.NewSource(fl.seed+1)))
			if err != nil {
				return err
			}
			cfg, err := a.file.Impute.Config()
			if err != nil {
				return err
			}
			cfg.Logger = a.log

			runtime.GC()
			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			start := time.Now()
			res, err := impute.New(cfg).Run(cmd.Context(), holed, cfg.Formula)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)
			runtime.ReadMemStats(&after)

			nrmse, pfc := score(truth, holed, res.Frame)
			summary := map[string]any{
				"rows":                  fl.rows,
				"cols":                  map[string]int{"float": fl.fcols, "categorical": fl.ccols},
				"missing_prob":          fl.missing,
				"state":                 res.State.String(),
				"passes":                len(res.Iterations),
				"best_pass":             res.Best,
				"elapsed_ms":            elapsed.Milliseconds(),
				"rows_per_sec":          float64(fl.rows) / elapsed.Seconds(),
				"mem_total_alloc_bytes": after.TotalAlloc - before.TotalAlloc,
				"gc_num":                after.NumGC - before.NumGC,
				"nrmse":                 nrmse,
				"pfc":                   pfc,
			}
			out := cmd.OutOrStdout()
			if fl.asJSON {
				b, _ := json.MarshalIndent(summary, "", "  ")
				fmt.Fprintln(out, string(b))
				return nil
			}
			fmt.Fprintf(out, "Rows: %d\n", fl.rows)
			fmt.Fprintf(out, "State: %s after %d passes (best %d)\n", res.State, len(res.Iterations), res.Best)
			fmt.Fprintf(out, "Elapsed: %s\n", elapsed)
			fmt.Fprintf(out, "Throughput: %.0f rows/s\n", float64(fl.rows)/elapsed.Seconds())
			fmt.Fprintf(out, "Total Alloc (delta): %d MB\n", (after.TotalAlloc-before.TotalAlloc)/1024/1024)
			fmt.Fprintf(out, "NRMSE: %.4f\n", nrmse)
			fmt.Fprintf(out, "PFC: %.4f\n", pfc)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&fl.rows, "rows", 300, "rows to generate")
	f.IntVar(&fl.fcols, "float-cols", 4, "number of correlated float columns")
	f.IntVar(&fl.ccols, "cat-cols", 1, "number of categorical columns")
	f.Float64Var(&fl.missing, "missing", 0.1, "probability of blanking each cell")
	f.Int64Var(&fl.seed, "seed", 42, "random seed for data and missingness")
	f.BoolVar(&fl.asJSON, "json", false, "emit JSON summary")
	return cmd
}

// synthetic builds columns driven by one latent factor so every column is
// predictable from the others.
func synthetic(fl *benchFlags, rng *rand.Rand) *df.Frame {
	var cols []df.ColumnSchema
	for i := 0; i < fl.fcols; i++ {
		cols = append(cols, df.ColumnSchema{Name: fmt.Sprintf("f%d", i), Type: df.KindFloat, Nullable: true})
	}
	levels := []string{"low", "mid", "high"}
	for i := 0; i < fl.ccols; i++ {
		cols = append(cols, df.ColumnSchema{Name: fmt.Sprintf("c%d", i), Type: df.KindCategorical, Nullable: true, Levels: levels})
	}
	f := df.NewFrame(df.Schema{Columns: cols})
	for r := 0; r < fl.rows; r++ {
		f.AppendNullRow()
		z := rng.NormFloat64()
		for i := 0; i < fl.fcols; i++ {
			_ = f.SetCell(r, fmt.Sprintf("f%d", i), float64(i+1)*z+0.3*rng.NormFloat64())
		}
		for i := 0; i < fl.ccols; i++ {
			lvl := 1
			switch v := z + 0.3*rng.NormFloat64(); {
			case v < -0.5:
				lvl = 0
			case v > 0.5:
				lvl = 2
			}
			_ = f.SetCell(r, fmt.Sprintf("c%d", i), levels[lvl])
		}
	}
	return f
}

// score returns the normalized RMSE over float columns and the proportion of
// falsely classified categorical cells, both over the cells that were blanked.
func score(truth, holed, filled *df.Frame) (nrmse, pfc float64) {
	var sq, vr float64
	var wrong, total int
	for _, cs := range truth.Schema().Columns {
		var obs []float64
		for r := 0; r < truth.Rows(); r++ {
			if holed.Value(r, cs.Name) != nil {
				continue
			}
			want, got := truth.Value(r, cs.Name), filled.Value(r, cs.Name)
			switch cs.Type {
			case df.KindFloat:
				g, ok := got.(float64)
				if !ok {
					continue
				}
				d := want.(float64) - g
				sq += d * d
				obs = append(obs, want.(float64))
			case df.KindCategorical:
				total++
				if want != got {
					wrong++
				}
			}
		}
		if len(obs) > 1 {
			vr += stat.Variance(obs, nil) * float64(len(obs))
		}
	}
	if vr > 0 {
		nrmse = math.Sqrt(sq / vr)
	}
	if total > 0 {
		pfc = float64(wrong) / float64(total)
	}
	return nrmse, pfc
}
