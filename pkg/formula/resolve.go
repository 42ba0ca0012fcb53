package formula

import (
	"sort"

	"github.com/rs/zerolog"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	"github.com/wdm0006/rangerimpute/pkg/types"
)

// Order selects how targets are sequenced within an iteration.
type Order int

const (
	// OrderByMissing visits targets by increasing missing count, ties in
	// dataset order.
	OrderByMissing Order = iota
	// OrderAsGiven visits targets in dataset order.
	OrderAsGiven
)

// Diagnostic is a non-fatal notice about a column that was excluded from a
// role. Kind is one of the sentinel errors of package errors.
type Diagnostic struct {
	Column string
	Target string
	Kind   error
	Reason string
}

func (d Diagnostic) String() string {
	s := d.Kind.Error()
	if d.Column != "" {
		s = d.Column + ": " + s
	}
	if d.Reason != "" {
		s += " (" + d.Reason + ")"
	}
	return s
}

func (d Diagnostic) MarshalZerologObject(e *zerolog.Event) {
	e.Str("column", d.Column).Str("kind", d.Kind.Error())
	if d.Target != "" {
		e.Str("target", d.Target)
	}
	if d.Reason != "" {
		e.Str("reason", d.Reason)
	}
}

// Target is one column to impute and the predictors its model may use.
type Target struct {
	Name       string
	Tag        types.Tag
	Predictors []string
	Missing    int
	// Fallback targets have no usable predictor and keep their marginal fill.
	Fallback bool
}

// Plan is the resolved visit order. Every iteration walks Targets in the
// same order.
type Plan struct {
	Targets []Target
	// ZeroVariance lists requested targets excluded for having a single
	// distinct observed value.
	ZeroVariance []string
}

// Empty reports whether nothing needs imputation.
func (p *Plan) Empty() bool { return len(p.Targets) == 0 }

// Modelled returns the targets that get a model fit each iteration.
func (p *Plan) Modelled() []Target {
	out := make([]Target, 0, len(p.Targets))
	for _, t := range p.Targets {
		if !t.Fallback {
			out = append(out, t)
		}
	}
	return out
}

// Resolve validates spec against the descriptors and builds the plan.
// Unknown column names are fatal; every data-quality exclusion becomes a
// diagnostic instead.
func Resolve(spec Spec, descs []Descriptor, order Order) (*Plan, []Diagnostic, error) {
	names := make([]string, len(descs))
	byName := make(map[string]*Descriptor, len(descs))
	for i := range descs {
		names[i] = descs[i].Name
		byName[descs[i].Name] = &descs[i]
	}
	lhs, err := Eval(spec.Targets, names)
	if err != nil {
		return nil, nil, err
	}
	rhs, err := Eval(spec.Predictors, names)
	if err != nil {
		return nil, nil, err
	}

	var diags []Diagnostic
	seen := map[string]bool{}
	note := func(col string, kind error, reason string) {
		key := col + "\x00" + kind.Error()
		if seen[key] {
			return
		}
		seen[key] = true
		diags = append(diags, Diagnostic{Column: col, Kind: kind, Reason: reason})
	}

	plan := &Plan{}
	isTarget := map[string]bool{}
	for _, n := range lhs {
		d := byName[n]
		missing := d.MissingCount()
		switch {
		case missing == 0:
			continue
		case d.TypeErr != nil:
			note(n, ierr.ErrUnsupportedColumnType, d.TypeErr.Error())
		case missing == d.Missing.Len():
			note(n, ierr.ErrAllMissing, "no observed value to learn from")
		case d.Distinct < 2:
			note(n, ierr.ErrZeroVarianceColumn, "single distinct observed value")
			plan.ZeroVariance = append(plan.ZeroVariance, n)
		default:
			isTarget[n] = true
			plan.Targets = append(plan.Targets, Target{Name: n, Tag: d.Tag, Missing: missing})
		}
	}

	var preds []string
	for _, n := range rhs {
		d := byName[n]
		missing := d.MissingCount()
		switch {
		case d.TypeErr != nil:
			note(n, ierr.ErrUnsupportedColumnType, d.TypeErr.Error())
		case missing == d.Missing.Len():
			note(n, ierr.ErrAllMissing, "no observed value to learn from")
		case d.Distinct < 2:
			note(n, ierr.ErrZeroVarianceColumn, "single distinct observed value")
		case missing > 0 && !isTarget[n]:
			note(n, ierr.ErrResidualMissingness, "has missing values but is not imputed")
		default:
			preds = append(preds, n)
		}
	}

	for i := range plan.Targets {
		t := &plan.Targets[i]
		for _, p := range preds {
			if p != t.Name {
				t.Predictors = append(t.Predictors, p)
			}
		}
		if len(t.Predictors) == 0 {
			t.Fallback = true
			diags = append(diags, Diagnostic{Column: t.Name, Target: t.Name, Kind: ierr.ErrNoUsablePredictors, Reason: "imputed from its marginal distribution"})
		}
	}

	if order == OrderByMissing {
		sort.SliceStable(plan.Targets, func(i, j int) bool { return plan.Targets[i].Missing < plan.Targets[j].Missing })
	}
	if plan.Empty() {
		diags = append(diags, Diagnostic{Kind: ierr.ErrEmptyTargetSet, Reason: "no requested column has imputable missing values"})
	}
	return plan, diags, nil
}
