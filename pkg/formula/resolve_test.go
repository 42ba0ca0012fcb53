package formula

import (
	"testing"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/types"
)

type odd struct{ df.FloatColumn }

func (o *odd) Kind() df.Kind    { return df.KindInvalid }
func (o *odd) Clone() df.Column { return o }

func floats(name string, vals ...any) *df.FloatColumn {
	c := df.NewFloatColumn(name, 0)
	for _, v := range vals {
		if v == nil {
			c.AppendNull()
			continue
		}
		c.Append(v.(float64))
	}
	return c
}

func mustFrame(t *testing.T, cols ...df.Column) *df.Frame {
	t.Helper()
	f, err := df.FromColumns(cols...)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func hasDiag(diags []Diagnostic, col string, kind error) bool {
	for _, d := range diags {
		if d.Column == col && ierr.Is(d.Kind, kind) {
			return true
		}
	}
	return false
}

func TestResolveDefault(t *testing.T) {
	f := mustFrame(t,
		floats("a", 1.0, 2.0, 3.0, 4.0),
		floats("b", 1.0, nil, nil, 4.0),
		floats("c", nil, 2.0, 3.0, 5.0),
	)
	plan, diags, err := Resolve(Default(), Describe(f), OrderByMissing)
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics %v", diags)
	}
	if len(plan.Targets) != 2 || plan.Targets[0].Name != "c" || plan.Targets[1].Name != "b" {
		t.Fatalf("targets = %+v", plan.Targets)
	}
	for _, tg := range plan.Targets {
		for _, p := range tg.Predictors {
			if p == tg.Name {
				t.Fatalf("%s predicts itself", tg.Name)
			}
		}
		if len(tg.Predictors) != 2 || tg.Tag != types.TagContinuous {
			t.Fatalf("target %+v", tg)
		}
	}
}

func TestResolveOrderAsGiven(t *testing.T) {
	f := mustFrame(t,
		floats("b", 1.0, nil, nil, 4.0),
		floats("c", nil, 2.0, 3.0, 5.0),
	)
	plan, _, err := Resolve(Default(), Describe(f), OrderAsGiven)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Targets[0].Name != "b" || plan.Targets[1].Name != "c" {
		t.Fatalf("targets = %+v", plan.Targets)
	}
}

func TestResolveResidualMissingPredictor(t *testing.T) {
	f := mustFrame(t,
		floats("a", 1.0, 2.0, 3.0, 4.0),
		floats("b", 1.0, nil, 3.0, 4.0),
		floats("c", nil, 2.0, 3.0, 5.0),
	)
	plan, diags, err := Resolve(Spec{Targets: Cols("b"), Predictors: All()}, Describe(f), OrderByMissing)
	if err != nil {
		t.Fatal(err)
	}
	if !hasDiag(diags, "c", ierr.ErrResidualMissingness) {
		t.Fatalf("missing residual diagnostic: %v", diags)
	}
	tg := targetNamed(plan, "b")
	if len(tg.Predictors) != 1 || tg.Predictors[0] != "a" {
		t.Fatalf("predictors = %v", tg.Predictors)
	}
}

func TestResolveExcludedColumnNeverPredicts(t *testing.T) {
	f := mustFrame(t,
		floats("a", 1.0, 2.0, 3.0, 4.0),
		floats("b", 1.0, nil, 3.0, 4.0),
		floats("c", 7.0, 2.0, 3.0, 5.0),
	)
	spec, err := Parse(". ~ . - c")
	if err != nil {
		t.Fatal(err)
	}
	plan, _, err := Resolve(spec, Describe(f), OrderByMissing)
	if err != nil {
		t.Fatal(err)
	}
	for _, tg := range plan.Targets {
		for _, p := range tg.Predictors {
			if p == "c" {
				t.Fatalf("c used for %s", tg.Name)
			}
		}
	}
}

func TestResolveExclusions(t *testing.T) {
	f := mustFrame(t,
		floats("a", 1.0, 2.0, 3.0, 4.0),
		floats("const", 5.0, nil, 5.0, nil),
		floats("empty", nil, nil, nil, nil),
		&odd{*floats("weird", 1.0, nil, 2.0, 3.0)},
		floats("b", 1.0, 2.0, nil, 4.0),
	)
	plan, diags, err := Resolve(Default(), Describe(f), OrderByMissing)
	if err != nil {
		t.Fatal(err)
	}
	if !hasDiag(diags, "const", ierr.ErrZeroVarianceColumn) {
		t.Fatalf("no zero variance diagnostic: %v", diags)
	}
	if !hasDiag(diags, "empty", ierr.ErrAllMissing) {
		t.Fatalf("no all-missing diagnostic: %v", diags)
	}
	if !hasDiag(diags, "weird", ierr.ErrUnsupportedColumnType) {
		t.Fatalf("no unsupported diagnostic: %v", diags)
	}
	if len(plan.Targets) != 1 || plan.Targets[0].Name != "b" {
		t.Fatalf("targets = %+v", plan.Targets)
	}
	if len(plan.ZeroVariance) != 1 || plan.ZeroVariance[0] != "const" {
		t.Fatalf("zero variance = %v", plan.ZeroVariance)
	}
	if got := plan.Targets[0].Predictors; len(got) != 1 || got[0] != "a" {
		t.Fatalf("predictors = %v", got)
	}
	seen := map[string]int{}
	for _, d := range diags {
		seen[d.Column+d.Kind.Error()]++
	}
	for k, n := range seen {
		if n > 1 {
			t.Fatalf("duplicate diagnostic %s", k)
		}
	}
}

func TestResolveNoUsablePredictors(t *testing.T) {
	f := mustFrame(t, floats("a", 1.0, nil, 3.0))
	plan, diags, err := Resolve(Default(), Describe(f), OrderByMissing)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Targets) != 1 || !plan.Targets[0].Fallback {
		t.Fatalf("targets = %+v", plan.Targets)
	}
	if len(plan.Modelled()) != 0 {
		t.Fatal("fallback target should not be modelled")
	}
	if !hasDiag(diags, "a", ierr.ErrNoUsablePredictors) {
		t.Fatalf("diagnostics = %v", diags)
	}
}

func TestResolveEmptyTargetSet(t *testing.T) {
	f := mustFrame(t, floats("a", 1.0, 2.0), floats("b", 3.0, 4.0))
	plan, diags, err := Resolve(Default(), Describe(f), OrderByMissing)
	if err != nil {
		t.Fatal(err)
	}
	if !plan.Empty() || !hasDiag(diags, "", ierr.ErrEmptyTargetSet) {
		t.Fatalf("plan %+v diags %v", plan, diags)
	}
}

func TestResolveInvalidSpecification(t *testing.T) {
	f := mustFrame(t, floats("a", 1.0, nil))
	_, _, err := Resolve(Spec{Targets: Cols("a"), Predictors: Cols("nope")}, Describe(f), OrderByMissing)
	if !ierr.Is(err, ierr.ErrInvalidSpecification) {
		t.Fatalf("want invalid specification, got %v", err)
	}
}

func TestMask(t *testing.T) {
	m := NewMask(130)
	for _, i := range []int{0, 63, 64, 129} {
		m.Set(i)
	}
	if m.Count() != 4 || !m.Has(64) || m.Has(65) {
		t.Fatalf("mask state wrong: %d", m.Count())
	}
	rows := m.Rows()
	want := []int{0, 63, 64, 129}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("rows = %v", rows)
		}
	}
}

func targetNamed(p *Plan, name string) Target {
	for _, t := range p.Targets {
		if t.Name == name {
			return t
		}
	}
	return Target{}
}
