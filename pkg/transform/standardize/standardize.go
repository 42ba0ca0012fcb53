// Package standardize normalizes text cells before imputation so that
// spelling variants collapse onto one level.
package standardize

import (
	"context"
	"regexp"
	"strings"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

type stringSetter interface {
	df.Column
	Get(i int) (string, bool)
	Set(i int, v string)
}

// rewrite applies fn to every present text cell. Categorical columns are
// rewritten through their level names; new names become new levels.
func rewrite(f *df.Frame, name string, fn func(string) string) {
	col, ok := f.ColumnByName(name)
	if !ok {
		return
	}
	c, ok := col.(stringSetter)
	if !ok {
		return
	}
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Get(i); ok {
			if nv := fn(v); nv != v {
				c.Set(i, nv)
			}
		}
	}
}

type Trim struct{ Column string }

func (t *Trim) Name() string { return "trim" }

func (t *Trim) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	rewrite(f, t.Column, strings.TrimSpace)
	return f, nil
}

type Lower struct{ Column string }

func (t *Lower) Name() string { return "lower" }

func (t *Lower) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	rewrite(f, t.Column, strings.ToLower)
	return f, nil
}

type MapValues struct {
	Column string
	Map    map[string]string
}

func (t *MapValues) Name() string { return "map_values" }

func (t *MapValues) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	rewrite(f, t.Column, func(v string) string {
		if nv, ok := t.Map[v]; ok {
			return nv
		}
		return v
	})
	return f, nil
}

type RegexReplace struct {
	Column  string
	Pattern string
	Replace string
	re      *regexp.Regexp
}

func (t *RegexReplace) Name() string { return "regex_replace" }

func (t *RegexReplace) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	if t.re == nil {
		re, err := regexp.Compile(t.Pattern)
		if err != nil {
			return f, err
		}
		t.re = re
	}
	rewrite(f, t.Column, func(v string) string { return t.re.ReplaceAllString(v, t.Replace) })
	return f, nil
}
