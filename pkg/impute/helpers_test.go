package impute

import (
	"context"
	"sync"
	"testing"
	"time"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/learner"
)

// linearFrame has y = 2*x1 + x2 with every fifth y missing.
func linearFrame(t *testing.T, n int) *df.Frame {
	t.Helper()
	x1 := df.NewFloatColumn("x1", 0)
	x2 := df.NewFloatColumn("x2", 0)
	y := df.NewFloatColumn("y", 0)
	for i := 0; i < n; i++ {
		a, b := float64(i), float64((i*7)%11)
		x1.Append(a)
		x2.Append(b)
		if i%5 == 0 {
			y.AppendNull()
		} else {
			y.Append(2*a + b)
		}
	}
	f, err := df.FromColumns(x1, x2, y)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func sameValue(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

// assertPreserved checks shape and that every observed input cell is
// unchanged in out.
func assertPreserved(t *testing.T, in, out *df.Frame) {
	t.Helper()
	if in.Rows() != out.Rows() || in.Cols() != out.Cols() {
		t.Fatalf("shape changed: %dx%d -> %dx%d", in.Rows(), in.Cols(), out.Rows(), out.Cols())
	}
	for i, name := range in.Names() {
		if out.Names()[i] != name || out.Column(i).Kind() != in.Column(i).Kind() {
			t.Fatalf("column %d changed: %s -> %s", i, name, out.Names()[i])
		}
		for r := 0; r < in.Rows(); r++ {
			v := in.Value(r, name)
			if v == nil {
				continue
			}
			if !sameValue(v, out.Value(r, name)) {
				t.Fatalf("%s[%d]: %v -> %v", name, r, v, out.Value(r, name))
			}
		}
	}
}

// scripted reports a fixed error trajectory for a single target and
// predicts the pass number for every missing row.
type scripted struct {
	mu    sync.Mutex
	errs  []float64
	calls int
	fail  int
	tasks []learner.Task
}

func (s *scripted) FitPredict(_ context.Context, t learner.Task) (learner.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.tasks = append(s.tasks, t)
	if s.fail > 0 && s.calls >= s.fail {
		return learner.Result{}, context.DeadlineExceeded
	}
	e := s.errs[len(s.errs)-1]
	if s.calls <= len(s.errs) {
		e = s.errs[s.calls-1]
	}
	res := learner.Result{Predictions: make([]float64, len(t.Predict)), OOBError: e}
	for i := range res.Predictions {
		res.Predictions[i] = float64(s.calls)
	}
	if t.PredictTraining {
		res.Training = append([]float64(nil), t.Y...)
	}
	return res, nil
}

// meanLearner predicts the observed mean with a zero error.
var meanLearner = learner.Func(func(_ context.Context, t learner.Task) (learner.Result, error) {
	var s float64
	for _, y := range t.Y {
		s += y
	}
	m := s / float64(len(t.Y))
	res := learner.Result{Predictions: make([]float64, len(t.Predict)), Training: make([]float64, len(t.Y))}
	for i := range res.Predictions {
		res.Predictions[i] = m
	}
	for i := range res.Training {
		res.Training[i] = m
	}
	return res, nil
})

func ridgeConfig() Config {
	cfg := DefaultConfig()
	cfg.Learner = learner.BaggedRidge()
	cfg.Params = learner.Params{"num.trees": 5}
	return cfg
}
