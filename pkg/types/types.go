// Package types classifies frame columns and converts them to and from the
// float64 representation the learners consume.
//
// Every supported TypeTag owns one codec in the registry table. Encoding is
// lossless for observed values; decoding rounds model output onto the nearest
// valid value of the column (integers, level codes, whole days, whole seconds).
package types

import (
	"math"
	"time"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

// Tag is the closed set of column representations the engine understands.
type Tag int

const (
	TagInvalid Tag = iota
	TagContinuous
	TagUnordered
	TagOrdered
	TagBoolean
	TagInstant
	TagDate
	TagText
)

func (t Tag) String() string {
	switch t {
	case TagContinuous:
		return "continuous"
	case TagUnordered:
		return "unordered-categorical"
	case TagOrdered:
		return "ordered-categorical"
	case TagBoolean:
		return "boolean"
	case TagInstant:
		return "temporal-instant"
	case TagDate:
		return "temporal-date"
	case TagText:
		return "text"
	default:
		return "invalid"
	}
}

// Classification reports whether models for this tag predict a class code
// rather than a quantity.
func (t Tag) Classification() bool {
	switch t {
	case TagUnordered, TagOrdered, TagBoolean, TagText:
		return true
	}
	return false
}

// Encoded is a column in learner form. Values holds NaN for missing cells.
type Encoded struct {
	Name     string
	Tag      Tag
	Values   []float64
	Levels   []string
	Integer  bool
	Location *time.Location
}

// Classes is the size of the level table for classification tags.
func (e *Encoded) Classes() int { return len(e.Levels) }

// Missing lists the rows holding NaN, in row order.
func (e *Encoded) Missing() []int {
	var rows []int
	for i, v := range e.Values {
		if math.IsNaN(v) {
			rows = append(rows, i)
		}
	}
	return rows
}

// Distinct counts distinct observed values.
func (e *Encoded) Distinct() int {
	seen := make(map[float64]struct{})
	for _, v := range e.Values {
		if !math.IsNaN(v) {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// Copy returns an Encoded with its own Values slice; decode artifacts are shared.
func (e *Encoded) Copy() *Encoded {
	out := *e
	out.Values = append([]float64(nil), e.Values...)
	return &out
}

type codec interface {
	encode(c df.Column) (*Encoded, error)
	decode(e *Encoded, v float64, row int, into df.Column) error
	canonical(e *Encoded, v float64) float64
}

var registry = map[Tag]codec{
	TagContinuous: continuousCodec{},
	TagUnordered:  categoricalCodec{},
	TagOrdered:    categoricalCodec{},
	TagBoolean:    boolCodec{},
	TagInstant:    instantCodec{},
	TagDate:       dateCodec{},
	TagText:       textCodec{},
}

// Classify returns the tag of a column or ErrUnsupportedColumnType.
func Classify(c df.Column) (Tag, error) {
	switch col := c.(type) {
	case *df.FloatColumn, *df.IntColumn:
		return TagContinuous, nil
	case *df.CategoricalColumn:
		if col.Ordered() {
			return TagOrdered, nil
		}
		return TagUnordered, nil
	case *df.BoolColumn:
		return TagBoolean, nil
	case *df.TimeColumn:
		if col.Kind() == df.KindDate {
			return TagDate, nil
		}
		return TagInstant, nil
	case *df.StringColumn:
		return TagText, nil
	}
	return TagInvalid, ierr.Wrapf(ierr.ErrUnsupportedColumnType, "column %s (%T)", c.Name(), c)
}

// Encode classifies c and converts it to learner form.
func Encode(c df.Column) (*Encoded, error) {
	tag, err := Classify(c)
	if err != nil {
		return nil, err
	}
	e, err := registry[tag].encode(c)
	if err != nil {
		return nil, err
	}
	e.Name = c.Name()
	e.Tag = tag
	return e, nil
}

// Decode writes values[i] into column into at rows[i]. Only the listed rows
// are touched, so observed cells keep their original typed value.
func Decode(e *Encoded, values []float64, rows []int, into df.Column) error {
	cd, ok := registry[e.Tag]
	if !ok {
		return ierr.Wrapf(ierr.ErrUnsupportedColumnType, "decode %s", e.Tag)
	}
	if len(values) != len(rows) {
		return ierr.Newf("decode %s: %d values for %d rows", e.Name, len(values), len(rows))
	}
	for i, r := range rows {
		if math.IsNaN(values[i]) {
			continue
		}
		if err := cd.decode(e, values[i], r, into); err != nil {
			return err
		}
	}
	return nil
}

// Canonical snaps a model output onto the nearest value the column can hold,
// in encoded form.
func Canonical(e *Encoded, v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return registry[e.Tag].canonical(e, v)
}

func clampCode(v float64, n int) int {
	code := int(math.Round(v))
	if code < 0 {
		return 0
	}
	if code >= n {
		return n - 1
	}
	return code
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
