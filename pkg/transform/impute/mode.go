package impute

import (
	"context"
	"math/rand"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

// Mode fills a column with its most frequent observed value. Ties go to
// the value seen first, or to a uniform draw from Rand when it is set.
type Mode struct {
	Column string
	Rand   *rand.Rand
}

func (t *Mode) Name() string { return "impute_mode" }

func (t *Mode) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return f, nil
	}
	switch c := col.(type) {
	case *df.StringColumn:
		if v, ok := modeOf(c, c.Get, t.Rand); ok {
			fill(c, func(i int) { c.Set(i, v) })
		}
	case *df.CategoricalColumn:
		if v, ok := modeOf(c, c.Code, t.Rand); ok {
			fill(c, func(i int) { _ = c.SetCode(i, v) })
		}
	case *df.BoolColumn:
		if v, ok := modeOf(c, c.Get, t.Rand); ok {
			fill(c, func(i int) { c.Set(i, v) })
		}
	case *df.IntColumn:
		if v, ok := modeOf(c, c.Get, t.Rand); ok {
			fill(c, func(i int) { c.Set(i, v) })
		}
	case *df.FloatColumn:
		get := func(i int) (float64, bool) {
			v, _ := c.Get(i)
			return v, !missing(c, i)
		}
		if v, ok := modeOf(c, get, t.Rand); ok {
			fill(c, func(i int) { c.Set(i, v) })
		}
	case *df.TimeColumn:
		if v, ok := modeOf(c, c.Get, t.Rand); ok {
			fill(c, func(i int) { c.Set(i, v) })
		}
	}
	return f, nil
}

func modeOf[K comparable](col df.Column, get func(int) (K, bool), rng *rand.Rand) (K, bool) {
	counts := map[K]int{}
	var order []K
	best := 0
	for i := 0; i < col.Len(); i++ {
		v, ok := get(i)
		if !ok {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
		if counts[v] > best {
			best = counts[v]
		}
	}
	var zero K
	if best == 0 {
		return zero, false
	}
	var tied []K
	for _, v := range order {
		if counts[v] == best {
			tied = append(tied, v)
		}
	}
	if rng != nil && len(tied) > 1 {
		return tied[rng.Intn(len(tied))], true
	}
	return tied[0], true
}
