package impute

import (
	"context"
	"sort"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

// Median fills numeric and temporal columns with the observed median.
type Median struct{ Column string }

func (t *Median) Name() string { return "impute_median" }

func (t *Median) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return f, nil
	}
	vals, set, ok := numeric(col)
	if !ok || len(vals) == 0 {
		return f, nil
	}
	sort.Float64s(vals)
	var med float64
	mid := len(vals) / 2
	if len(vals)%2 == 0 {
		med = (vals[mid-1] + vals[mid]) / 2
	} else {
		med = vals[mid]
	}
	fill(col, func(i int) { set(i, med) })
	return f, nil
}
