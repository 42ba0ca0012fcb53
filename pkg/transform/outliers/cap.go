// Package outliers clamps extreme numeric values before imputation so a
// handful of outliers do not dominate the marginal fill.
package outliers

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

// Cap clamps a numeric column to fixed bounds.
type Cap struct {
	Column string
	Min    *float64
	Max    *float64
}

func (t *Cap) Name() string { return "cap_range" }

func (t *Cap) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return f, nil
	}
	clamp(col, t.Min, t.Max)
	return f, nil
}

// Winsorize clamps a numeric column to its own empirical quantiles, for
// example Lower 0.01 and Upper 0.99.
type Winsorize struct {
	Column string
	Lower  float64
	Upper  float64
}

func (t *Winsorize) Name() string { return "winsorize" }

func (t *Winsorize) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	if t.Lower < 0 || t.Upper > 1 || t.Lower >= t.Upper {
		return f, fmt.Errorf("winsorize %s: quantiles must satisfy 0 <= lower < upper <= 1", t.Column)
	}
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return f, nil
	}
	var xs []float64
	for i := 0; i < col.Len(); i++ {
		if v, ok := value(col, i); ok {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return f, nil
	}
	sort.Float64s(xs)
	lo := stat.Quantile(t.Lower, stat.Empirical, xs, nil)
	hi := stat.Quantile(t.Upper, stat.Empirical, xs, nil)
	clamp(col, &lo, &hi)
	return f, nil
}

func value(col df.Column, i int) (float64, bool) {
	switch c := col.(type) {
	case *df.FloatColumn:
		return c.Get(i)
	case *df.IntColumn:
		v, ok := c.Get(i)
		return float64(v), ok
	}
	return 0, false
}

func clamp(col df.Column, min, max *float64) {
	switch c := col.(type) {
	case *df.FloatColumn:
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				continue
			}
			v, _ := c.Get(i)
			if min != nil && v < *min {
				v = *min
			}
			if max != nil && v > *max {
				v = *max
			}
			c.Set(i, v)
		}
	case *df.IntColumn:
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				continue
			}
			v, _ := c.Get(i)
			if min != nil && float64(v) < *min {
				v = int64(*min)
			}
			if max != nil && float64(v) > *max {
				v = int64(*max)
			}
			c.Set(i, v)
		}
	}
}
