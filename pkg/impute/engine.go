// Package impute is the iterative chained-equations engine. Each pass fits
// one model per incomplete target, in plan order, and writes its predictions
// back before the next target is fit, so later targets see the values just
// imputed. Passes repeat until the aggregate out-of-bag error stops
// improving; the best pass is returned.
package impute

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	"github.com/wdm0006/rangerimpute/pkg/formula"
	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/learner"
	"github.com/wdm0006/rangerimpute/pkg/pmm"
	timp "github.com/wdm0006/rangerimpute/pkg/transform/impute"
	"github.com/wdm0006/rangerimpute/pkg/types"
)

// Imputer runs imputations with a fixed configuration. It holds no run
// state, so one Imputer may serve concurrent runs.
type Imputer struct {
	cfg Config
}

func New(cfg Config) *Imputer { return &Imputer{cfg: cfg} }

// Config returns the imputer's configuration.
func (im *Imputer) Config() Config { return im.cfg }

// target is the per-run working state of one planned target.
type target struct {
	formula.Target
	enc      *types.Encoded
	missing  []int
	observed []int
	donors   []int // per missing row, the observed row PMM copied, or -1
	norm     float64
}

// run is the state of one Run call. It is owned by a single goroutine.
type run struct {
	cfg     Config
	id      string
	log     zerolog.Logger
	rng     *rand.Rand
	work    *df.Frame
	enc     map[string]*types.Encoded
	targets []*target
	best    map[string][]float64
	donors  map[string][]int
}

// Run imputes the missing cells of the spec's targets in f. f itself is
// never modified.
//
// An invalid spec or configuration is returned as an error before any model
// is fit, and so is a learner failure, with no partial result. A run with
// nothing to impute is not an error: it returns a copy of f in state
// Aborted with Reason ErrEmptyTargetSet.
func (im *Imputer) Run(ctx context.Context, f *df.Frame, spec formula.Spec) (*Result, error) {
	start := time.Now()
	cfg := im.cfg
	if err := cfg.validate(f.Rows()); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	r := &run{
		cfg:    cfg,
		id:     id,
		log:    cfg.Logger.With().Str("run", id).Logger(),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		enc:    map[string]*types.Encoded{},
		best:   map[string][]float64{},
		donors: map[string][]int{},
	}
	res := &Result{RunID: id, State: Initializing}

	descs := formula.Describe(f)
	plan, diags, err := formula.Resolve(spec, descs, cfg.Order)
	if err != nil {
		return nil, err
	}
	res.Plan, res.Diagnostics = plan, diags
	for _, d := range diags {
		r.log.Warn().Object("diagnostic", d).Msg("column excluded")
	}

	r.work = f.Clone()
	res.Frame = r.work
	if cfg.ZeroVariance == ZeroVarianceConstant {
		for _, name := range plan.ZeroVariance {
			if _, err := (&timp.Mode{Column: name}).Apply(ctx, r.work); err != nil {
				return nil, err
			}
		}
	}
	if plan.Empty() {
		res.State = Aborted
		res.Reason = ierr.ErrEmptyTargetSet
		res.Elapsed = time.Since(start)
		r.log.Info().Msg("nothing to impute")
		r.finish(ctx, res)
		return res, nil
	}

	if err := r.initialize(ctx, plan, descs); err != nil {
		return nil, err
	}
	r.log.Info().Int("targets", len(plan.Targets)).Int("modelled", len(plan.Modelled())).Int("rows", f.Rows()).Msg("imputation started")

	if err := r.iterate(ctx, res, start); err != nil {
		r.log.Error().Err(err).Msg("imputation aborted")
		return nil, err
	}
	if err := r.restore(); err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	r.log.Info().Object("result", res).Msg("imputation finished")
	r.finish(ctx, res)
	return res, nil
}

// initialize applies the marginal fill to every target, then encodes the
// filled targets and every predictor.
func (r *run) initialize(ctx context.Context, plan *formula.Plan, descs []formula.Descriptor) error {
	masks := make(map[string]formula.Mask, len(descs))
	for _, d := range descs {
		masks[d.Name] = d.Missing
	}
	for _, t := range plan.Targets {
		fill := &timp.Marginal{Column: t.Name, Median: r.cfg.InitialFill == FillMedian, Rand: r.rng}
		if _, err := fill.Apply(ctx, r.work); err != nil {
			return ierr.Wrapf(err, "initial fill of %s", t.Name)
		}
	}
	encode := func(name string) (*types.Encoded, error) {
		if e, ok := r.enc[name]; ok {
			return e, nil
		}
		col, _ := r.work.ColumnByName(name)
		e, err := types.Encode(col)
		if err != nil {
			return nil, err
		}
		r.enc[name] = e
		return e, nil
	}
	for _, t := range plan.Targets {
		e, err := encode(t.Name)
		if err != nil {
			return err
		}
		for _, p := range t.Predictors {
			if _, err := encode(p); err != nil {
				return err
			}
		}
		if t.Fallback {
			continue
		}
		tg := &target{Target: t, enc: e, norm: 1}
		mask := masks[t.Name]
		tg.missing = mask.Rows()
		tg.observed = make([]int, 0, mask.Len()-len(tg.missing))
		next := 0
		for i := 0; i < mask.Len(); i++ {
			if next < len(tg.missing) && tg.missing[next] == i {
				next++
				continue
			}
			tg.observed = append(tg.observed, i)
		}
		tg.donors = make([]int, len(tg.missing))
		for i := range tg.donors {
			tg.donors[i] = -1
		}
		if !t.Tag.Classification() {
			obs := make([]float64, len(tg.observed))
			for i, row := range tg.observed {
				obs[i] = e.Values[row]
			}
			if v := stat.Variance(obs, nil); v > 0 && !math.IsNaN(v) {
				tg.norm = v
			}
		}
		r.targets = append(r.targets, tg)
	}
	return nil
}

func (r *run) iterate(ctx context.Context, res *Result, start time.Time) error {
	cfg := r.cfg
	prev := math.Inf(1)
	for iter := 1; ; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.State = IterationRunning
		passStart := time.Now()
		rep := IterationReport{RunID: r.id, Iteration: iter, Columns: make([]ColumnError, 0, len(r.targets))}
		for _, t := range r.targets {
			ce, err := r.update(ctx, t, iter)
			if err != nil {
				return err
			}
			rep.Columns = append(rep.Columns, ce)
		}
		rep.Aggregate = aggregate(rep.Columns)
		rep.Elapsed = time.Since(passStart)
		if iter == 1 || rep.Aggregate < res.BestError {
			rep.Improved = true
			res.Best, res.BestError = iter, rep.Aggregate
			r.snapshot()
		}
		res.Iterations = append(res.Iterations, rep)
		r.log.Info().Object("pass", rep).Msg("iteration complete")
		for _, rp := range cfg.Reporters {
			if err := rp.Iteration(ctx, rep); err != nil {
				r.log.Warn().Err(err).Msg("reporter failed")
			}
		}

		switch {
		case len(r.targets) == 0:
			res.State = Converged
		case iter > 1 && !(prev-rep.Aggregate > cfg.Tolerance):
			res.State = Converged
		case iter >= cfg.MaxIter:
			res.State = MaxIterReached
		case cfg.MaxDuration > 0 && time.Since(start) >= cfg.MaxDuration:
			res.State = MaxIterReached
		}
		if res.State != IterationRunning {
			return nil
		}
		prev = rep.Aggregate
	}
}

// update refits one target and writes its new values into the working
// encoding. Predictors are read as they stand, including values written
// earlier in the same pass.
func (r *run) update(ctx context.Context, t *target, iter int) (ColumnError, error) {
	task := learner.Task{
		Target:          t.Name,
		Tag:             t.Tag,
		Classes:         t.enc.Classes(),
		X:               r.design(t.Predictors, t.observed),
		Y:               make([]float64, len(t.observed)),
		Predict:         r.design(t.Predictors, t.missing),
		PredictTraining: r.cfg.PMMK > 0,
		Params:          r.cfg.Params,
		Seed:            r.rng.Int63(),
	}
	for i, row := range t.observed {
		task.Y[i] = t.enc.Values[row]
	}
	if r.cfg.CaseWeights != nil {
		task.Weights = make([]float64, len(t.observed))
		for i, row := range t.observed {
			task.Weights[i] = r.cfg.CaseWeights[row]
		}
	}

	out, err := r.cfg.Learner.FitPredict(ctx, task)
	if err == nil && len(out.Predictions) != len(t.missing) {
		err = ierr.Newf("%d predictions for %d missing rows", len(out.Predictions), len(t.missing))
	}
	if err != nil {
		return ColumnError{}, ierr.NewLearnerError(t.Name, iter, err)
	}

	donors, matched := r.match(t, out)
	for i, row := range t.missing {
		if matched {
			t.donors[i] = donors[i]
			t.enc.Values[row] = t.enc.Values[donors[i]]
			continue
		}
		t.donors[i] = -1
		t.enc.Values[row] = types.Canonical(t.enc, out.Predictions[i])
	}

	ce := ColumnError{Column: t.Name, OOB: out.OOBError, Normalized: out.OOBError / t.norm}
	r.log.Debug().Str("column", t.Name).Int("iteration", iter).Float64("oob", ce.OOB).Float64("normalized", ce.Normalized).Msg("column updated")
	return ce, nil
}

// match picks an observed donor row for every missing row. It reports false
// when PMM is off or has no donor pool, and the caller keeps the model
// output.
func (r *run) match(t *target, out learner.Result) ([]int, bool) {
	if r.cfg.PMMK <= 0 || len(out.Training) != len(t.observed) {
		return nil, false
	}
	dist := pmm.Absolute
	if t.Tag.Classification() {
		dist = pmm.Exact
	}
	return pmm.Match(out.Predictions, out.Training, t.observed, r.cfg.PMMK, dist, r.rng)
}

// design assembles the predictor matrix for the given rows.
func (r *run) design(predictors []string, rows []int) [][]float64 {
	x := make([][]float64, len(rows))
	for i, row := range rows {
		x[i] = make([]float64, len(predictors))
		for j, p := range predictors {
			x[i][j] = r.enc[p].Values[row]
		}
	}
	return x
}

// aggregate is the mean of the finite normalized errors.
func aggregate(cols []ColumnError) float64 {
	var sum float64
	var n int
	for _, c := range cols {
		if math.IsNaN(c.Normalized) || math.IsInf(c.Normalized, 0) {
			continue
		}
		sum += c.Normalized
		n++
	}
	if n == 0 {
		if len(cols) == 0 {
			return 0
		}
		return math.NaN()
	}
	return sum / float64(n)
}

func (r *run) snapshot() {
	for _, t := range r.targets {
		vals := r.best[t.Name]
		if vals == nil {
			vals = make([]float64, len(t.missing))
			r.best[t.Name] = vals
		}
		for i, row := range t.missing {
			vals[i] = t.enc.Values[row]
		}
		r.donors[t.Name] = append(r.donors[t.Name][:0], t.donors...)
	}
}

// restore decodes the best snapshot into the working frame at the
// originally missing rows only. Cells filled by PMM take the donor's typed
// value verbatim rather than a decoded copy of its encoding.
func (r *run) restore() error {
	for _, t := range r.targets {
		col, _ := r.work.ColumnByName(t.Name)
		if err := types.Decode(t.enc, r.best[t.Name], t.missing, col); err != nil {
			return err
		}
		for i, donor := range r.donors[t.Name] {
			if donor < 0 {
				continue
			}
			if err := r.work.SetCell(t.missing[i], t.Name, r.work.Value(donor, t.Name)); err != nil {
				return ierr.Wrapf(err, "copy donor for %s", t.Name)
			}
		}
	}
	return nil
}

func (r *run) finish(ctx context.Context, res *Result) {
	for _, rp := range r.cfg.Reporters {
		if err := rp.Finish(ctx, res); err != nil {
			r.log.Warn().Err(err).Msg("reporter failed")
		}
	}
}
