// Package golearn adapts github.com/sjwhitworth/golearn to the learner
// boundary: numeric design matrices become DenseInstances with float
// attributes. The class is categorical for golearn's label classifiers and
// float for its CART trees, which read class codes as numbers.
package golearn

import (
	"strconv"

	"github.com/sjwhitworth/golearn/base"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
)

// Schema is the attribute set shared by the training and prediction grids of
// one model. golearn resolves attributes by name, so both grids must be built
// from the same Schema.
type Schema struct {
	Features []base.Attribute
	Class    base.Attribute
}

// NewSchema declares p float features and a class attribute with codes
// 0..classes-1.
func NewSchema(p, classes int) *Schema {
	s := features(p)
	cls := new(base.CategoricalAttribute)
	cls.SetName("class")
	for c := 0; c < classes; c++ {
		cls.GetSysValFromString(strconv.Itoa(c))
	}
	s.Class = cls
	return s
}

// NewFloatSchema declares p float features and a float class, the layout
// the CART trees require for both regression values and class codes.
func NewFloatSchema(p int) *Schema {
	s := features(p)
	s.Class = base.NewFloatAttribute("y")
	return s
}

func features(p int) *Schema {
	s := &Schema{Features: make([]base.Attribute, p)}
	for j := range s.Features {
		s.Features[j] = base.NewFloatAttribute("x" + strconv.Itoa(j))
	}
	return s
}

// ToDenseInstances builds a grid from row-major x. y may be nil for
// prediction grids, in which case the class cell is set to 0.
func (s *Schema) ToDenseInstances(x [][]float64, y []float64) (*base.DenseInstances, error) {
	if y != nil && len(y) != len(x) {
		return nil, ierr.Newf("golearn: %d rows for %d labels", len(x), len(y))
	}
	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(s.Features))
	for i, a := range s.Features {
		specs[i] = inst.AddAttribute(a)
	}
	cls := inst.AddAttribute(s.Class)
	if err := inst.AddClassAttribute(s.Class); err != nil {
		return nil, err
	}
	if err := inst.Extend(len(x)); err != nil {
		return nil, err
	}
	cat, categorical := s.Class.(*base.CategoricalAttribute)
	zero := base.PackFloatToBytes(0)
	if categorical {
		zero = cat.GetSysValFromString("0")
	}
	for r, row := range x {
		if len(row) != len(specs) {
			return nil, ierr.Newf("golearn: row %d has %d features, want %d", r, len(row), len(specs))
		}
		for c, v := range row {
			inst.Set(specs[c], r, base.PackFloatToBytes(v))
		}
		switch {
		case y == nil:
			inst.Set(cls, r, zero)
		case categorical:
			inst.Set(cls, r, cat.GetSysValFromString(strconv.Itoa(int(y[r]))))
		default:
			inst.Set(cls, r, base.PackFloatToBytes(y[r]))
		}
	}
	return inst, nil
}

// Codes reads the predicted class codes back out of a prediction grid.
func Codes(pred base.FixedDataGrid) ([]float64, error) {
	_, n := pred.Size()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		code, err := strconv.Atoi(base.GetClass(pred, i))
		if err != nil {
			return nil, ierr.Wrapf(err, "golearn: class at row %d", i)
		}
		out[i] = float64(code)
	}
	return out, nil
}
