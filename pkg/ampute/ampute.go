// Package ampute injects missing values for testing imputations.
package ampute

import (
	"context"
	"fmt"
	"math/rand"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

// Options selects where cells are dropped. Prob applies to every column
// listed in Columns (all columns when empty) unless PerColumn overrides it.
type Options struct {
	Prob      float64
	PerColumn map[string]float64
	Columns   []string
}

func (o Options) prob(name string) (float64, bool) {
	if p, ok := o.PerColumn[name]; ok {
		return p, true
	}
	if len(o.Columns) == 0 {
		return o.Prob, true
	}
	for _, c := range o.Columns {
		if c == name {
			return o.Prob, true
		}
	}
	return 0, false
}

func (o Options) validate(f *df.Frame) error {
	check := func(name string, p float64) error {
		if p < 0 || p > 1 {
			return fmt.Errorf("ampute %s: probability %v outside [0, 1]", name, p)
		}
		return nil
	}
	if err := check("*", o.Prob); err != nil {
		return err
	}
	for name, p := range o.PerColumn {
		if _, ok := f.ColumnByName(name); !ok {
			return fmt.Errorf("ampute: unknown column %s", name)
		}
		if err := check(name, p); err != nil {
			return err
		}
	}
	for _, name := range o.Columns {
		if _, ok := f.ColumnByName(name); !ok {
			return fmt.Errorf("ampute: unknown column %s", name)
		}
	}
	return nil
}

// GenerateNA returns a copy of f in which each targeted cell is set missing
// independently with its column's probability. f is not modified.
func GenerateNA(f *df.Frame, o Options, rng *rand.Rand) (*df.Frame, error) {
	if err := o.validate(f); err != nil {
		return nil, err
	}
	out := f.Clone()
	drop(out, o, rng)
	return out, nil
}

func drop(f *df.Frame, o Options, rng *rand.Rand) {
	for i := 0; i < f.Cols(); i++ {
		col := f.Column(i)
		p, ok := o.prob(col.Name())
		if !ok || p == 0 {
			continue
		}
		for r := 0; r < col.Len(); r++ {
			if rng.Float64() < p {
				col.SetNull(r)
			}
		}
	}
}

// Transform amputes frames in place, one chunk at a time, from a single
// random stream. It is row-local and can run under frame.RunStream.
type Transform struct {
	Options Options
	Rand    *rand.Rand
}

func (t *Transform) Name() string { return "ampute" }

func (t *Transform) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	if err := t.Options.validate(f); err != nil {
		return nil, err
	}
	drop(f, t.Options, t.Rand)
	return f, nil
}
