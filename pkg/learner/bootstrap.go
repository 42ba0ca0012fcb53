package learner

import (
	"context"
	"math"
	"math/rand"
	"sort"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
)

// Estimator is a single model fit on one bootstrap sample. Fit must not
// retain x or y; the slices are reused between replicates.
type Estimator interface {
	Fit(x [][]float64, y []float64) error
	Predict(x [][]float64) ([]float64, error)
}

// Factory builds a fresh estimator for a task. seed is private to the
// replicate being built.
type Factory func(t Task, seed int64) (Estimator, error)

// Bootstrap is a bagged ensemble of estimators with a true out-of-bag error.
// Each replicate trains on a weighted bootstrap sample of the training rows;
// rows left out of a replicate are scored by it. Regression targets average
// replicate outputs and report the OOB mean squared error; classification
// targets take a majority vote and report the OOB misclassification rate.
//
// Replicates defaults to the "num.trees" param, then 25. The sample size is
// the "sample.fraction" param times the row count.
type Bootstrap struct {
	New        Factory
	Replicates int
}

func (b Bootstrap) FitPredict(ctx context.Context, t Task) (res Result, err error) {
	defer ierr.Recover("bootstrap fit "+t.Target, &err)
	n := len(t.Y)
	if n == 0 || len(t.X) != n {
		return Result{}, ierr.Newf("%s: %d training rows for %d targets", t.Target, len(t.X), n)
	}
	cdf, err := sampling(t.Weights, n)
	if err != nil {
		return Result{}, ierr.Wrapf(err, "%s", t.Target)
	}
	reps := b.Replicates
	if reps <= 0 {
		reps = t.Params.Int("num.trees", 25)
	}
	if reps < 1 {
		reps = 1
	}
	size := int(math.Round(t.Params.Float("sample.fraction", 1) * float64(n)))
	if size < 1 {
		size = 1
	}
	classify := t.Tag.Classification()
	classes := t.Classes
	if classify && classes == 0 {
		for _, y := range t.Y {
			if int(y)+1 > classes {
				classes = int(y) + 1
			}
		}
	}

	agg := newAggregator(len(t.Predict), n, classify, classes)
	rng := rand.New(rand.NewSource(t.Seed))
	rows := make([][]float64, 0, n+len(t.Predict))
	rows = append(rows, t.X...)
	rows = append(rows, t.Predict...)
	inbag := make([]bool, n)
	xs := make([][]float64, size)
	ys := make([]float64, size)

	for r := 0; r < reps; r++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		for i := range inbag {
			inbag[i] = false
		}
		for i := 0; i < size; i++ {
			j := draw(cdf, rng)
			inbag[j] = true
			xs[i], ys[i] = t.X[j], t.Y[j]
		}
		est, err := b.New(t, rng.Int63())
		if err != nil {
			return Result{}, err
		}
		if err := est.Fit(xs, ys); err != nil {
			return Result{}, ierr.Wrapf(err, "%s: replicate %d fit", t.Target, r)
		}
		out, err := est.Predict(rows)
		if err != nil {
			return Result{}, ierr.Wrapf(err, "%s: replicate %d predict", t.Target, r)
		}
		if len(out) != len(rows) {
			return Result{}, ierr.Newf("%s: replicate %d returned %d predictions for %d rows", t.Target, r, len(out), len(rows))
		}
		agg.add(out[:n], out[n:], inbag)
	}

	res.Predictions = agg.predictions()
	training := agg.training()
	res.OOBError = agg.oobError(t.Y, training)
	if t.PredictTraining {
		res.Training = training
	}
	return res, nil
}

// sampling builds a cumulative distribution over rows from case weights.
func sampling(w []float64, n int) ([]float64, error) {
	cdf := make([]float64, n)
	if len(w) == 0 {
		for i := range cdf {
			cdf[i] = float64(i + 1)
		}
		return cdf, nil
	}
	if len(w) != n {
		return nil, ierr.Newf("%d case weights for %d rows", len(w), n)
	}
	var sum float64
	for i, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ierr.Newf("case weight %v at row %d", v, i)
		}
		sum += v
		cdf[i] = sum
	}
	if sum == 0 {
		return nil, ierr.New("case weights sum to zero")
	}
	return cdf, nil
}

func draw(cdf []float64, rng *rand.Rand) int {
	u := rng.Float64() * cdf[len(cdf)-1]
	i := sort.SearchFloat64s(cdf, u)
	for i < len(cdf)-1 && cdf[i] <= u {
		i++
	}
	return i
}

type aggregator struct {
	classify bool
	classes  int
	reps     int
	oobCount []int

	predSum, oobSum, allSum       []float64
	predVotes, oobVotes, allVotes [][]int
}

func newAggregator(npred, ntrain int, classify bool, classes int) *aggregator {
	a := &aggregator{classify: classify, classes: classes, oobCount: make([]int, ntrain)}
	if classify {
		a.predVotes = votes(npred, classes)
		a.oobVotes = votes(ntrain, classes)
		a.allVotes = votes(ntrain, classes)
		return a
	}
	a.predSum = make([]float64, npred)
	a.oobSum = make([]float64, ntrain)
	a.allSum = make([]float64, ntrain)
	return a
}

func votes(n, k int) [][]int {
	out := make([][]int, n)
	for i := range out {
		out[i] = make([]int, k)
	}
	return out
}

func (a *aggregator) code(v float64) int {
	c := int(math.Round(v))
	if c < 0 || math.IsNaN(v) {
		return 0
	}
	if c >= a.classes {
		return a.classes - 1
	}
	return c
}

func (a *aggregator) add(train, pred []float64, inbag []bool) {
	a.reps++
	for i, v := range train {
		if !inbag[i] {
			a.oobCount[i]++
		}
		if a.classify {
			c := a.code(v)
			a.allVotes[i][c]++
			if !inbag[i] {
				a.oobVotes[i][c]++
			}
			continue
		}
		a.allSum[i] += v
		if !inbag[i] {
			a.oobSum[i] += v
		}
	}
	for i, v := range pred {
		if a.classify {
			a.predVotes[i][a.code(v)]++
			continue
		}
		a.predSum[i] += v
	}
}

// majority returns the most voted code; ties go to the lower code.
func majority(v []int) float64 {
	best := 0
	for c := 1; c < len(v); c++ {
		if v[c] > v[best] {
			best = c
		}
	}
	return float64(best)
}

func (a *aggregator) predictions() []float64 {
	if a.classify {
		out := make([]float64, len(a.predVotes))
		for i, v := range a.predVotes {
			out[i] = majority(v)
		}
		return out
	}
	out := make([]float64, len(a.predSum))
	for i, s := range a.predSum {
		out[i] = s / float64(a.reps)
	}
	return out
}

// training returns OOB predictions for the training rows, falling back to
// the full ensemble for rows that were in every bag.
func (a *aggregator) training() []float64 {
	out := make([]float64, len(a.oobCount))
	for i, k := range a.oobCount {
		switch {
		case a.classify && k > 0:
			out[i] = majority(a.oobVotes[i])
		case a.classify:
			out[i] = majority(a.allVotes[i])
		case k > 0:
			out[i] = a.oobSum[i] / float64(k)
		default:
			out[i] = a.allSum[i] / float64(a.reps)
		}
	}
	return out
}

// oobError scores rows that were out of bag at least once. When no row
// was, the in-bag error over all rows is used.
func (a *aggregator) oobError(y, training []float64) float64 {
	var sum float64
	var n int
	for i, k := range a.oobCount {
		if k == 0 {
			continue
		}
		sum += a.loss(y[i], training[i])
		n++
	}
	if n > 0 {
		return sum / float64(n)
	}
	for i := range y {
		sum += a.loss(y[i], training[i])
	}
	return sum / float64(len(y))
}

func (a *aggregator) loss(y, p float64) float64 {
	if a.classify {
		if float64(a.code(y)) != p {
			return 1
		}
		return 0
	}
	d := y - p
	return d * d
}
