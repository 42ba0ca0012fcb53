// Package validate checks cell values against allowed sets and ranges.
// Offending cells either fail the pipeline or are cleared so the chained
// imputer treats them as missing.
package validate

import (
	"context"
	"fmt"
	"time"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

// Action says what happens to an invalid cell.
type Action int

const (
	Fail Action = iota
	SetMissing
)

// ParseAction maps "fail" and "null"/"missing" to an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "", "fail":
		return Fail, nil
	case "null", "missing":
		return SetMissing, nil
	}
	return Fail, fmt.Errorf("unknown validation action %q", s)
}

type InSet struct {
	Column string
	Values map[string]struct{}
	Action Action
}

func NewInSet(col string, vals []string, a Action) *InSet {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return &InSet{Column: col, Values: m, Action: a}
}

func (t *InSet) Name() string { return "validate_in" }

func (t *InSet) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return f, nil
	}
	sc, ok := col.(interface {
		df.Column
		Get(int) (string, bool)
	})
	if !ok {
		return f, nil
	}
	bad := t.Action.sweep(sc, func(i int) bool {
		v, ok := sc.Get(i)
		if !ok {
			return false
		}
		_, allowed := t.Values[v]
		return !allowed
	})
	if bad > 0 && t.Action == Fail {
		return f, fmt.Errorf("validate_in: column %s has %d values outside allowed set", t.Column, bad)
	}
	return f, nil
}

// Range bounds numeric and instant columns; instants compare as Unix
// seconds.
type Range struct {
	Column string
	Min    *float64
	Max    *float64
	Action Action
}

func (t *Range) Name() string { return "validate_range" }

func (t *Range) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return f, nil
	}
	var value func(i int) (float64, bool)
	switch c := col.(type) {
	case *df.FloatColumn:
		value = c.Get
	case *df.IntColumn:
		value = func(i int) (float64, bool) { v, ok := c.Get(i); return float64(v), ok }
	case *df.TimeColumn:
		value = func(i int) (float64, bool) { v, ok := c.Get(i); return unix(v), ok }
	default:
		return f, nil
	}
	bad := t.Action.sweep(col, func(i int) bool {
		v, ok := value(i)
		return ok && ((t.Min != nil && v < *t.Min) || (t.Max != nil && v > *t.Max))
	})
	if bad > 0 && t.Action == Fail {
		return f, fmt.Errorf("validate_range: column %s has %d out-of-range values", t.Column, bad)
	}
	return f, nil
}

func unix(t time.Time) float64 { return float64(t.Unix()) }

// sweep counts invalid rows and clears them under SetMissing.
func (a Action) sweep(c df.Column, invalid func(int) bool) int {
	bad := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) || !invalid(i) {
			continue
		}
		bad++
		if a == SetMissing {
			c.SetNull(i)
		}
	}
	return bad
}
