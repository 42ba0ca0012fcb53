package config

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/spf13/cast"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	"github.com/wdm0006/rangerimpute/pkg/formula"
	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/impute"
	"github.com/wdm0006/rangerimpute/pkg/learner"
	imp "github.com/wdm0006/rangerimpute/pkg/transform/impute"
	"github.com/wdm0006/rangerimpute/pkg/transform/outliers"
	std "github.com/wdm0006/rangerimpute/pkg/transform/standardize"
	val "github.com/wdm0006/rangerimpute/pkg/transform/validate"
)

// Spec parses the formula; empty means every column from every column.
func (i Impute) Spec() (formula.Spec, error) {
	if strings.TrimSpace(i.Formula) == "" {
		return formula.Default(), nil
	}
	return formula.Parse(i.Formula)
}

// Config maps the impute section onto an engine config. Logger and
// reporters are left for the caller.
func (i Impute) Config() (impute.Config, error) {
	cfg := impute.DefaultConfig()
	cfg.PMMK = i.PMMK
	cfg.MaxIter = i.MaxIter
	cfg.Tolerance = i.Tolerance
	cfg.Seed = i.Seed
	cfg.Params = learner.Params(i.Params)
	if i.MaxDuration != "" {
		d, err := cast.ToDurationE(i.MaxDuration)
		if err != nil {
			return cfg, ierr.Wrapf(ierr.ErrInvalidConfig, "max_duration %q", i.MaxDuration)
		}
		cfg.MaxDuration = d
	}
	switch strings.ToLower(i.Order) {
	case "", "missing":
		cfg.Order = formula.OrderByMissing
	case "given", "dataset":
		cfg.Order = formula.OrderAsGiven
	default:
		return cfg, ierr.Wrapf(ierr.ErrInvalidConfig, "unknown order %q", i.Order)
	}
	switch strings.ToLower(i.InitialFill) {
	case "", "mean":
		cfg.InitialFill = impute.FillMean
	case "median":
		cfg.InitialFill = impute.FillMedian
	default:
		return cfg, ierr.Wrapf(ierr.ErrInvalidConfig, "unknown initial_fill %q", i.InitialFill)
	}
	switch strings.ToLower(i.ZeroVariance) {
	case "", "leave":
		cfg.ZeroVariance = impute.ZeroVarianceLeave
	case "constant":
		cfg.ZeroVariance = impute.ZeroVarianceConstant
	default:
		return cfg, ierr.Wrapf(ierr.ErrInvalidConfig, "unknown zero_variance %q", i.ZeroVariance)
	}
	switch strings.ToLower(i.Learner) {
	case "", "auto", "forest":
		cfg.Learner = impute.DefaultLearner()
	case "ridge":
		cfg.Learner = impute.RidgeLearner()
	default:
		return cfg, ierr.Wrapf(ierr.ErrInvalidConfig, "unknown learner %q", i.Learner)
	}
	spec, err := i.Spec()
	if err != nil {
		return cfg, err
	}
	cfg.Formula = spec
	return cfg, nil
}

// CaseWeights reads the weights column of f; nil when none is configured.
// Missing weights are an error.
func (i Impute) CaseWeights(f *df.Frame) ([]float64, error) {
	if i.Weights == "" {
		return nil, nil
	}
	if _, ok := f.ColumnByName(i.Weights); !ok {
		return nil, ierr.Wrapf(ierr.ErrInvalidConfig, "weights column %q not found", i.Weights)
	}
	w := make([]float64, f.Rows())
	for r := range w {
		v := f.Value(r, i.Weights)
		x, err := cast.ToFloat64E(v)
		if v == nil || err != nil {
			return nil, ierr.Wrapf(ierr.ErrInvalidConfig, "weights column %q: row %d is not a number", i.Weights, r)
		}
		w[r] = x
	}
	return w, nil
}

// ColumnTypes turns the columns section into reader overrides.
func (f *File) ColumnTypes() (map[string]df.ColumnSchema, error) {
	if len(f.Columns) == 0 {
		return nil, nil
	}
	out := make(map[string]df.ColumnSchema, len(f.Columns))
	for name, c := range f.Columns {
		cs := df.ColumnSchema{Name: name, Nullable: true, Levels: c.Levels, Ordered: c.Ordered}
		switch strings.ToLower(c.Type) {
		case "float", "double", "numeric":
			cs.Type = df.KindFloat
		case "int", "integer":
			cs.Type = df.KindInt
		case "bool", "boolean":
			cs.Type = df.KindBool
		case "string", "text":
			cs.Type = df.KindString
		case "time", "instant", "timestamp":
			cs.Type = df.KindTime
		case "date":
			cs.Type = df.KindDate
		case "categorical", "factor":
			cs.Type = df.KindCategorical
		case "ordered":
			cs.Type = df.KindCategorical
			cs.Ordered = true
		default:
			return nil, ierr.Wrapf(ierr.ErrInvalidConfig, "column %s: unknown type %q", name, c.Type)
		}
		if cs.Type != df.KindCategorical && (len(c.Levels) > 0 || c.Ordered) {
			return nil, ierr.Wrapf(ierr.ErrInvalidConfig, "column %s: levels only apply to categorical columns", name)
		}
		out[name] = cs
	}
	return out, nil
}

// Pipeline builds the cleaning steps. rng seeds steps that break ties at
// random; nil keeps them deterministic.
func (f *File) Pipeline(rng *rand.Rand) (*df.Pipeline, error) {
	p := df.NewPipeline()
	for i, s := range f.Steps {
		t, err := s.transform(rng)
		if err != nil {
			return nil, ierr.Wrapf(err, "step %d", i+1)
		}
		p.Add(t)
	}
	return p, nil
}

// Ops lists the step names the pipeline accepts.
func Ops() []string {
	ops := make([]string, 0, len(builders))
	for k := range builders {
		ops = append(ops, k)
	}
	sort.Strings(ops)
	return ops
}

var builders = map[string]func(s Step, rng *rand.Rand) (df.Transform, error){
	"trim":          func(s Step, _ *rand.Rand) (df.Transform, error) { return &std.Trim{Column: s.Column}, nil },
	"lower":         func(s Step, _ *rand.Rand) (df.Transform, error) { return &std.Lower{Column: s.Column}, nil },
	"map_values":    func(s Step, _ *rand.Rand) (df.Transform, error) { return &std.MapValues{Column: s.Column, Map: s.Map}, nil },
	"regex_replace": func(s Step, _ *rand.Rand) (df.Transform, error) { return &std.RegexReplace{Column: s.Column, Pattern: s.Pattern, Replace: s.Replace}, nil },
	"validate_in": func(s Step, _ *rand.Rand) (df.Transform, error) {
		a, err := val.ParseAction(s.Action)
		if err != nil {
			return nil, err
		}
		return val.NewInSet(s.Column, s.Values, a), nil
	},
	"validate_range": func(s Step, _ *rand.Rand) (df.Transform, error) {
		a, err := val.ParseAction(s.Action)
		if err != nil {
			return nil, err
		}
		return &val.Range{Column: s.Column, Min: s.Min, Max: s.Max, Action: a}, nil
	},
	"cap_range": func(s Step, _ *rand.Rand) (df.Transform, error) { return &outliers.Cap{Column: s.Column, Min: s.Min, Max: s.Max}, nil },
	"winsorize": func(s Step, _ *rand.Rand) (df.Transform, error) {
		return &outliers.Winsorize{Column: s.Column, Lower: s.Lower, Upper: s.Upper}, nil
	},
	"impute_constant": func(s Step, _ *rand.Rand) (df.Transform, error) { return &imp.Constant{Column: s.Column, Value: s.Value}, nil },
	"impute_mean":     func(s Step, _ *rand.Rand) (df.Transform, error) { return &imp.Mean{Column: s.Column}, nil },
	"impute_median":   func(s Step, _ *rand.Rand) (df.Transform, error) { return &imp.Median{Column: s.Column}, nil },
	"impute_mode":     func(s Step, rng *rand.Rand) (df.Transform, error) { return &imp.Mode{Column: s.Column, Rand: rng}, nil },
}

func (s Step) transform(rng *rand.Rand) (df.Transform, error) {
	b, ok := builders[s.Op]
	if !ok {
		return nil, ierr.Wrapf(ierr.ErrInvalidConfig, "unknown op %q", s.Op)
	}
	if s.Column == "" {
		return nil, ierr.Wrapf(ierr.ErrInvalidConfig, "op %s needs a column", s.Op)
	}
	return b(s, rng)
}
