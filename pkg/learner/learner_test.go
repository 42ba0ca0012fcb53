package learner

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	"github.com/wdm0006/rangerimpute/pkg/types"
)

// meanEstimator predicts the mean of its training targets and remembers
// which targets it saw.
type meanEstimator struct {
	seen *[]float64
	mean float64
}

func (m *meanEstimator) Fit(_ [][]float64, y []float64) error {
	var s float64
	for _, v := range y {
		s += v
		if m.seen != nil {
			*m.seen = append(*m.seen, v)
		}
	}
	m.mean = s / float64(len(y))
	return nil
}

func (m *meanEstimator) Predict(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = m.mean
	}
	return out, nil
}

// echoEstimator predicts the first feature, which lets tests check row
// alignment.
type echoEstimator struct{}

func (echoEstimator) Fit([][]float64, []float64) error { return nil }
func (echoEstimator) Predict(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, r := range x {
		out[i] = r[0]
	}
	return out, nil
}

type panicEstimator struct{}

func (panicEstimator) Fit([][]float64, []float64) error { panic("boom") }
func (panicEstimator) Predict([][]float64) ([]float64, error) {
	return nil, nil
}

func linearTask() Task {
	var x [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		a, b := float64(i), float64(i%7)
		x = append(x, []float64{a, b})
		y = append(y, 3*a-2*b+5)
	}
	return Task{Target: "y", Tag: types.TagContinuous, X: x, Y: y, Predict: [][]float64{{100, 1}, {0, 0}}, Seed: 1}
}

func TestParams(t *testing.T) {
	p := Params{"num.trees": "50", "ridge.lambda": 0.5, "flag": "true", "bad": "x", "wait": "2s"}
	assert.Equal(t, 50, p.Int("num.trees", 1))
	assert.Equal(t, 0.5, p.Float("ridge.lambda", 0))
	assert.True(t, p.Bool("flag", false))
	assert.Equal(t, 7, p.Int("bad", 7))
	assert.Equal(t, 3, p.Int("absent", 3))
	assert.Equal(t, "x", p.String("bad", ""))
	assert.Equal(t, "2s", p.Duration("wait", 0).String())
	m := p.Merge(Params{"num.trees": 5})
	assert.Equal(t, 5, m.Int("num.trees", 0))
	assert.Equal(t, 50, p.Int("num.trees", 0))
}

func TestRidgeRecoversLinearModel(t *testing.T) {
	task := linearTask()
	est, err := NewRidge(Task{Params: Params{"ridge.lambda": 0}}, 0)
	require.NoError(t, err)
	require.NoError(t, est.Fit(task.X, task.Y))
	out, err := est.Predict(task.Predict)
	require.NoError(t, err)
	assert.InDelta(t, 303, out[0], 1e-4)
	assert.InDelta(t, 5, out[1], 1e-4)
	coef := est.(*Ridge).Coefficients()
	assert.InDelta(t, 3, coef[0], 1e-5)
	assert.InDelta(t, -2, coef[1], 1e-5)
}

func TestRidgeWithoutPredictors(t *testing.T) {
	r := &Ridge{}
	require.NoError(t, r.Fit([][]float64{{}, {}}, []float64{2, 4}))
	out, err := r.Predict([][]float64{{}})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out[0])
}

func TestBootstrapRegression(t *testing.T) {
	task := linearTask()
	task.PredictTraining = true
	res, err := BaggedRidge().FitPredict(context.Background(), task)
	require.NoError(t, err)
	require.Len(t, res.Predictions, 2)
	require.Len(t, res.Training, len(task.Y))
	assert.InDelta(t, 303, res.Predictions[0], 0.5)
	assert.Less(t, res.OOBError, 1.0)
}

func TestBootstrapAlignsRows(t *testing.T) {
	task := Task{
		Tag:             types.TagContinuous,
		X:               [][]float64{{1}, {2}, {3}},
		Y:               []float64{0, 0, 0},
		Predict:         [][]float64{{7}, {8}},
		PredictTraining: true,
	}
	res, err := Bootstrap{New: func(Task, int64) (Estimator, error) { return echoEstimator{}, nil }, Replicates: 4}.FitPredict(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, res.Predictions)
	assert.Equal(t, []float64{1, 2, 3}, res.Training)
	// every row predicts itself, so the error is the mean of x^2 over scored rows
	assert.Greater(t, res.OOBError, 0.0)
}

func TestBootstrapCaseWeights(t *testing.T) {
	var seen []float64
	task := Task{
		Tag:     types.TagContinuous,
		X:       [][]float64{{0}, {0}, {0}},
		Y:       []float64{1, 2, 3},
		Weights: []float64{0, 1, 0},
		Predict: [][]float64{{0}},
		Seed:    42,
	}
	f := func(Task, int64) (Estimator, error) { return &meanEstimator{seen: &seen}, nil }
	res, err := Bootstrap{New: f, Replicates: 10}.FitPredict(context.Background(), task)
	require.NoError(t, err)
	for _, v := range seen {
		require.Equal(t, 2.0, v, "zero-weight row sampled")
	}
	assert.Equal(t, 2.0, res.Predictions[0])
}

func TestBootstrapRejectsBadWeights(t *testing.T) {
	task := linearTask()
	task.Weights = make([]float64, len(task.Y))
	_, err := BaggedRidge().FitPredict(context.Background(), task)
	require.Error(t, err)
	task.Weights[0] = -1
	_, err = BaggedRidge().FitPredict(context.Background(), task)
	require.Error(t, err)
}

func TestBootstrapClassification(t *testing.T) {
	task := Task{
		Tag:             types.TagUnordered,
		Classes:         3,
		X:               [][]float64{{2}, {2}, {2}, {0}, {1}, {2}},
		Y:               []float64{2, 2, 2, 0, 1, 2},
		Predict:         [][]float64{{2}, {0}, {9}},
		PredictTraining: true,
		Seed:            3,
	}
	res, err := Bootstrap{New: func(Task, int64) (Estimator, error) { return echoEstimator{}, nil }, Replicates: 8}.FitPredict(context.Background(), task)
	require.NoError(t, err)
	// outputs are clamped onto the class codes
	assert.Equal(t, []float64{2, 0, 2}, res.Predictions)
	assert.Equal(t, 0.0, res.OOBError)
}

func TestBootstrapRecoversPanics(t *testing.T) {
	task := linearTask()
	_, err := Bootstrap{New: func(Task, int64) (Estimator, error) { return panicEstimator{}, nil }}.FitPredict(context.Background(), task)
	require.Error(t, err)
	var pe *ierr.PanicError
	assert.True(t, ierr.As(err, &pe))
}

func TestBootstrapHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BaggedRidge().FitPredict(ctx, linearTask())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBootstrapDeterministic(t *testing.T) {
	a, err := BaggedRidge().FitPredict(context.Background(), linearTask())
	require.NoError(t, err)
	b, err := BaggedRidge().FitPredict(context.Background(), linearTask())
	require.NoError(t, err)
	assert.Equal(t, a.Predictions, b.Predictions)
	assert.Equal(t, a.OOBError, b.OOBError)
}

func TestAutoRoutesByTag(t *testing.T) {
	var got string
	mk := func(name string) Learner {
		return Func(func(context.Context, Task) (Result, error) { got = name; return Result{OOBError: math.NaN()}, nil })
	}
	a := Auto{Classifier: mk("class"), Regressor: mk("reg")}
	_, _ = a.FitPredict(context.Background(), Task{Tag: types.TagBoolean})
	assert.Equal(t, "class", got)
	_, _ = a.FitPredict(context.Background(), Task{Tag: types.TagDate})
	assert.Equal(t, "reg", got)
}
