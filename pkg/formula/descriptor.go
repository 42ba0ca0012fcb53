package formula

import (
	"math"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/types"
)

// Descriptor is the per-column summary the resolver works from. It is built
// once per run; Missing stays fixed for the whole run.
type Descriptor struct {
	Name     string
	Tag      types.Tag
	TypeErr  error
	Missing  Mask
	Distinct int
	Encoded  *types.Encoded
}

// MissingCount is the number of missing cells.
func (d Descriptor) MissingCount() int { return d.Missing.Count() }

// Describe summarizes every column of f in schema order.
func Describe(f *df.Frame) []Descriptor {
	out := make([]Descriptor, f.Cols())
	for i := 0; i < f.Cols(); i++ {
		c := f.Column(i)
		d := Descriptor{Name: c.Name(), Missing: NewMask(f.Rows())}
		enc, err := types.Encode(c)
		if err != nil {
			d.TypeErr = err
			for r := 0; r < c.Len(); r++ {
				if c.IsNull(r) {
					d.Missing.Set(r)
				}
			}
			out[i] = d
			continue
		}
		d.Tag = enc.Tag
		d.Encoded = enc
		d.Distinct = enc.Distinct()
		for r, v := range enc.Values {
			if math.IsNaN(v) {
				d.Missing.Set(r)
			}
		}
		out[i] = d
	}
	return out
}
