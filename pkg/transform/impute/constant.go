package impute

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cast"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

type Constant struct {
	Column string
	// coerced per column kind
	Value any
}

func (t *Constant) Name() string { return "impute_constant" }

func (t *Constant) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return f, nil
	}
	var err error
	switch c := col.(type) {
	case *df.FloatColumn:
		var v float64
		if v, err = cast.ToFloat64E(t.Value); err == nil {
			fill(c, func(i int) { c.Set(i, v) })
		}
	case *df.IntColumn:
		var v int64
		if v, err = cast.ToInt64E(t.Value); err == nil {
			fill(c, func(i int) { c.Set(i, v) })
		}
	case *df.StringColumn:
		var v string
		if v, err = cast.ToStringE(t.Value); err == nil {
			fill(c, func(i int) { c.Set(i, v) })
		}
	case *df.CategoricalColumn:
		var v string
		if v, err = cast.ToStringE(t.Value); err == nil {
			fill(c, func(i int) { c.Set(i, v) })
		}
	case *df.BoolColumn:
		var v bool
		if v, err = cast.ToBoolE(t.Value); err == nil {
			fill(c, func(i int) { c.Set(i, v) })
		}
	case *df.TimeColumn:
		var v time.Time
		if v, err = cast.ToTimeE(t.Value); err == nil {
			fill(c, func(i int) { c.Set(i, v) })
		}
	}
	if err != nil {
		return nil, fmt.Errorf("constant for %s: %w", t.Column, err)
	}
	return f, nil
}
