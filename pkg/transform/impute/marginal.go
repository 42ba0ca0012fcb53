package impute

import (
	"context"
	"math/rand"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

// Marginal picks the fill by column kind: mean (or median) for numeric and
// temporal columns, mode for everything else.
type Marginal struct {
	Column string
	Median bool
	Rand   *rand.Rand
}

func (t *Marginal) Name() string { return "impute_marginal" }

func (t *Marginal) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return f, nil
	}
	switch col.Kind() {
	case df.KindFloat, df.KindInt, df.KindTime, df.KindDate:
		if t.Median {
			return (&Median{Column: t.Column}).Apply(ctx, f)
		}
		return (&Mean{Column: t.Column}).Apply(ctx, f)
	}
	return (&Mode{Column: t.Column, Rand: t.Rand}).Apply(ctx, f)
}
