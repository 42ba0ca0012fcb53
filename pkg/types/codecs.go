package types

import (
	"math"
	"time"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

const secondsPerDay = 86400

type continuousCodec struct{}

func (continuousCodec) encode(c df.Column) (*Encoded, error) {
	e := &Encoded{Values: make([]float64, c.Len())}
	switch col := c.(type) {
	case *df.FloatColumn:
		for i := range e.Values {
			v, ok := col.Get(i)
			if !ok {
				v = math.NaN()
			}
			e.Values[i] = v
		}
	case *df.IntColumn:
		e.Integer = true
		for i := range e.Values {
			v, ok := col.Get(i)
			if !ok {
				e.Values[i] = math.NaN()
				continue
			}
			e.Values[i] = float64(v)
		}
	default:
		return nil, ierr.Wrapf(ierr.ErrUnsupportedColumnType, "continuous codec on %T", c)
	}
	return e, nil
}

func (continuousCodec) decode(e *Encoded, v float64, row int, into df.Column) error {
	switch col := into.(type) {
	case *df.FloatColumn:
		col.Set(row, v)
	case *df.IntColumn:
		col.Set(row, int64(math.Round(v)))
	default:
		return ierr.Newf("decode %s: continuous value into %T", e.Name, into)
	}
	return nil
}

func (continuousCodec) canonical(e *Encoded, v float64) float64 {
	if e.Integer {
		return math.Round(v)
	}
	return v
}

type categoricalCodec struct{}

func (categoricalCodec) encode(c df.Column) (*Encoded, error) {
	col, ok := c.(*df.CategoricalColumn)
	if !ok {
		return nil, ierr.Wrapf(ierr.ErrUnsupportedColumnType, "categorical codec on %T", c)
	}
	e := &Encoded{Values: make([]float64, c.Len()), Levels: append([]string(nil), col.Levels()...)}
	for i := range e.Values {
		code, ok := col.Code(i)
		if !ok {
			e.Values[i] = math.NaN()
			continue
		}
		e.Values[i] = float64(code)
	}
	return e, nil
}

func (categoricalCodec) decode(e *Encoded, v float64, row int, into df.Column) error {
	col, ok := into.(*df.CategoricalColumn)
	if !ok {
		return ierr.Newf("decode %s: level into %T", e.Name, into)
	}
	return col.SetCode(row, clampCode(v, len(e.Levels)))
}

func (categoricalCodec) canonical(e *Encoded, v float64) float64 {
	return float64(clampCode(v, len(e.Levels)))
}

// textCodec treats free text as an unordered factor over the observed strings.
type textCodec struct{}

func (textCodec) encode(c df.Column) (*Encoded, error) {
	col, ok := c.(*df.StringColumn)
	if !ok {
		return nil, ierr.Wrapf(ierr.ErrUnsupportedColumnType, "text codec on %T", c)
	}
	e := &Encoded{Values: make([]float64, c.Len())}
	codes := map[string]int{}
	for i := range e.Values {
		s, ok := col.Get(i)
		if !ok {
			e.Values[i] = math.NaN()
			continue
		}
		code, seen := codes[s]
		if !seen {
			code = len(e.Levels)
			codes[s] = code
			e.Levels = append(e.Levels, s)
		}
		e.Values[i] = float64(code)
	}
	return e, nil
}

func (textCodec) decode(e *Encoded, v float64, row int, into df.Column) error {
	col, ok := into.(*df.StringColumn)
	if !ok {
		return ierr.Newf("decode %s: text into %T", e.Name, into)
	}
	if len(e.Levels) == 0 {
		return ierr.Newf("decode %s: empty level table", e.Name)
	}
	col.Set(row, e.Levels[clampCode(v, len(e.Levels))])
	return nil
}

func (textCodec) canonical(e *Encoded, v float64) float64 {
	return float64(clampCode(v, len(e.Levels)))
}

type boolCodec struct{}

func (boolCodec) encode(c df.Column) (*Encoded, error) {
	col, ok := c.(*df.BoolColumn)
	if !ok {
		return nil, ierr.Wrapf(ierr.ErrUnsupportedColumnType, "bool codec on %T", c)
	}
	e := &Encoded{Values: make([]float64, c.Len()), Levels: []string{"false", "true"}}
	for i := range e.Values {
		b, ok := col.Get(i)
		switch {
		case !ok:
			e.Values[i] = math.NaN()
		case b:
			e.Values[i] = 1
		}
	}
	return e, nil
}

func (boolCodec) decode(e *Encoded, v float64, row int, into df.Column) error {
	col, ok := into.(*df.BoolColumn)
	if !ok {
		return ierr.Newf("decode %s: bool into %T", e.Name, into)
	}
	col.Set(row, v >= 0.5)
	return nil
}

func (boolCodec) canonical(_ *Encoded, v float64) float64 {
	if v >= 0.5 {
		return 1
	}
	return 0
}

// instantCodec encodes seconds since the Unix epoch.
type instantCodec struct{}

func (instantCodec) encode(c df.Column) (*Encoded, error) {
	col, ok := c.(*df.TimeColumn)
	if !ok {
		return nil, ierr.Wrapf(ierr.ErrUnsupportedColumnType, "instant codec on %T", c)
	}
	e := &Encoded{Values: make([]float64, c.Len()), Location: time.UTC}
	located := false
	for i := range e.Values {
		t, ok := col.Get(i)
		if !ok {
			e.Values[i] = math.NaN()
			continue
		}
		if !located {
			e.Location = t.Location()
			located = true
		}
		e.Values[i] = float64(t.Unix()) + float64(t.Nanosecond())/1e9
	}
	return e, nil
}

func (instantCodec) decode(e *Encoded, v float64, row int, into df.Column) error {
	col, ok := into.(*df.TimeColumn)
	if !ok {
		return ierr.Newf("decode %s: instant into %T", e.Name, into)
	}
	loc := e.Location
	if loc == nil {
		loc = time.UTC
	}
	sec, frac := math.Modf(v)
	col.Set(row, time.Unix(int64(sec), int64(math.Round(frac*1e9))).In(loc))
	return nil
}

func (instantCodec) canonical(_ *Encoded, v float64) float64 { return math.Round(v) }

// dateCodec encodes whole days since 1970-01-01.
type dateCodec struct{}

func (dateCodec) encode(c df.Column) (*Encoded, error) {
	col, ok := c.(*df.TimeColumn)
	if !ok {
		return nil, ierr.Wrapf(ierr.ErrUnsupportedColumnType, "date codec on %T", c)
	}
	e := &Encoded{Values: make([]float64, c.Len()), Location: time.UTC}
	for i := range e.Values {
		t, ok := col.Get(i)
		if !ok {
			e.Values[i] = math.NaN()
			continue
		}
		e.Values[i] = float64(floorDiv(t.Unix(), secondsPerDay))
	}
	return e, nil
}

func (dateCodec) decode(e *Encoded, v float64, row int, into df.Column) error {
	col, ok := into.(*df.TimeColumn)
	if !ok {
		return ierr.Newf("decode %s: date into %T", e.Name, into)
	}
	col.Set(row, time.Unix(int64(math.Round(v))*secondsPerDay, 0).UTC())
	return nil
}

func (dateCodec) canonical(_ *Encoded, v float64) float64 { return math.Round(v) }
