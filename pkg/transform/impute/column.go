// Package impute holds single-column marginal imputers: each fills the
// missing cells of one column from that column alone. They are frame
// Transforms and also serve as the initial fill of the iterative engine.
//
// Float cells holding NaN count as missing.
package impute

import (
	"math"
	"time"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

func missing(col df.Column, i int) bool {
	if col.IsNull(i) {
		return true
	}
	if c, ok := col.(*df.FloatColumn); ok {
		v, _ := c.Get(i)
		return math.IsNaN(v)
	}
	return false
}

// numeric exposes a numeric or temporal column as float64. set writes a
// value back in the column's own type.
func numeric(col df.Column) (vals []float64, set func(i int, v float64), ok bool) {
	switch c := col.(type) {
	case *df.FloatColumn:
		for i := 0; i < c.Len(); i++ {
			if !missing(c, i) {
				v, _ := c.Get(i)
				vals = append(vals, v)
			}
		}
		return vals, c.Set, true
	case *df.IntColumn:
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Get(i); ok {
				vals = append(vals, float64(v))
			}
		}
		return vals, func(i int, v float64) { c.Set(i, int64(math.Round(v))) }, true
	case *df.TimeColumn:
		loc := time.UTC
		found := false
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Get(i); ok {
				if !found {
					loc, found = v.Location(), true
				}
				vals = append(vals, float64(v.Unix()))
			}
		}
		return vals, func(i int, v float64) { c.Set(i, time.Unix(int64(math.Round(v)), 0).In(loc)) }, true
	}
	return nil, nil, false
}

func fill(col df.Column, set func(i int)) {
	for i := 0; i < col.Len(); i++ {
		if missing(col, i) {
			set(i)
		}
	}
}
