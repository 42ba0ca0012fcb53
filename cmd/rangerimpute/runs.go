package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wdm0006/rangerimpute/pkg/runlog"
)

func newRunsCmd(a *app) *cobra.Command {
	var (
		dbPath string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or the passes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("runlog") {
				dbPath = a.file.RunLog
			}
			if dbPath == "" {
				return fmt.Errorf("runs: no run log; pass --runlog or set runlog")
			}
			store, err := runlog.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			t := tablewriter.NewWriter(cmd.OutOrStdout())
			t.SetBorder(false)
			if len(args) == 0 {
				runs, err := store.Runs(ctx, limit)
				if err != nil {
					return err
				}
				t.SetHeader([]string{"run", "started", "state", "passes", "best", "error", "elapsed", "source"})
				for _, r := range runs {
					t.Append([]string{r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.State,
						strconv.Itoa(r.Iterations), strconv.Itoa(r.Best), optFloat(r.BestError), r.Elapsed.String(), r.Source})
				}
				t.Render()
				return nil
			}

			passes, err := store.Passes(ctx, args[0])
			if err != nil {
				return err
			}
			t.SetHeader([]string{"pass", "aggregate", "improved", "elapsed", "column", "oob", "normalized"})
			for _, p := range passes {
				head := []string{strconv.Itoa(p.Iteration), optFloat(p.Aggregate), strconv.FormatBool(p.Improved), p.Elapsed.String()}
				if len(p.Columns) == 0 {
					t.Append(append(head, "", "", ""))
				}
				for i, c := range p.Columns {
					if i > 0 {
						head = []string{"", "", "", ""}
					}
					t.Append(append(head, c.Column, fmtFloat(c.OOB), fmtFloat(c.Normalized)))
				}
			}
			t.Render()
			diags, err := store.Diagnostics(ctx, args[0])
			if err != nil {
				return err
			}
			for _, d := range diags {
				fmt.Fprintf(cmd.OutOrStdout(), "excluded %s: %s (%s)\n", d.Column, d.Kind, d.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "runlog", "", "SQLite run log")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	return cmd
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmtFloat(*v)
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'g', 4, 64) }
