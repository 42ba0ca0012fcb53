package impute

import (
	"context"

	"gonum.org/v1/gonum/stat"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

// Mean fills numeric and temporal columns with the observed mean. Integer
// columns round to the nearest value.
type Mean struct{ Column string }

func (t *Mean) Name() string { return "impute_mean" }

func (t *Mean) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return f, nil
	}
	vals, set, ok := numeric(col)
	if !ok || len(vals) == 0 {
		return f, nil
	}
	mean := stat.Mean(vals, nil)
	fill(col, func(i int) { set(i, mean) })
	return f, nil
}
