// Package formula turns "impute these columns using those columns" into a
// validated visit plan.
//
// Column sets are built from a small algebra (All, Cols, Union, Minus) and
// evaluated against the dataset's column names. Parse offers the familiar
// "lhs ~ rhs" notation on top of the same algebra.
package formula

import (
	"sort"
	"strings"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
)

// Set is a column-set expression.
type Set interface {
	members(universe map[string]int, unknown map[string]struct{}) map[string]struct{}
	String() string
}

type allSet struct{}

// All denotes every column of the dataset.
func All() Set { return allSet{} }

func (allSet) members(universe map[string]int, _ map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(universe))
	for n := range universe {
		out[n] = struct{}{}
	}
	return out
}
func (allSet) String() string { return "." }

type colSet []string

// Cols denotes the named columns.
func Cols(names ...string) Set { return colSet(names) }

func (c colSet) members(universe map[string]int, unknown map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(c))
	for _, n := range c {
		if _, ok := universe[n]; !ok {
			unknown[n] = struct{}{}
			continue
		}
		out[n] = struct{}{}
	}
	return out
}
func (c colSet) String() string { return strings.Join(c, " + ") }

type unionSet []Set

// Union denotes the columns in any of the given sets.
func Union(sets ...Set) Set { return unionSet(sets) }

func (u unionSet) members(universe map[string]int, unknown map[string]struct{}) map[string]struct{} {
	out := map[string]struct{}{}
	for _, s := range u {
		for n := range s.members(universe, unknown) {
			out[n] = struct{}{}
		}
	}
	return out
}

func (u unionSet) String() string {
	parts := make([]string, len(u))
	for i, s := range u {
		parts[i] = s.String()
	}
	return strings.Join(parts, " + ")
}

type minusSet struct{ a, b Set }

// Minus denotes the columns of a that are not in b.
func Minus(a, b Set) Set { return minusSet{a, b} }

func (m minusSet) members(universe map[string]int, unknown map[string]struct{}) map[string]struct{} {
	out := m.a.members(universe, unknown)
	for n := range m.b.members(universe, unknown) {
		delete(out, n)
	}
	return out
}
func (m minusSet) String() string { return m.a.String() + " - " + m.b.String() }

// Eval resolves s against the dataset columns, returning names in dataset
// order. Any reference to an unknown column is an invalid specification.
func Eval(s Set, columns []string) ([]string, error) {
	if s == nil {
		s = All()
	}
	universe := make(map[string]int, len(columns))
	for i, n := range columns {
		universe[n] = i
	}
	unknown := map[string]struct{}{}
	in := s.members(universe, unknown)
	if len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for n := range unknown {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, ierr.NewSpecError(s.String(), "", names...)
	}
	out := make([]string, 0, len(in))
	for _, n := range columns {
		if _, ok := in[n]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// Spec pairs the target set (left-hand side) with the predictor set
// (right-hand side).
type Spec struct {
	Targets    Set
	Predictors Set
}

// Default imputes every incomplete column from all other columns.
func Default() Spec { return Spec{Targets: All(), Predictors: All()} }

func (s Spec) String() string {
	t, p := s.Targets, s.Predictors
	if t == nil {
		t = All()
	}
	if p == nil {
		p = All()
	}
	return t.String() + " ~ " + p.String()
}
