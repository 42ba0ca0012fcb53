// Package learner is the boundary between the imputation engine and the model
// that fills one column. The engine hands a Learner a Task (numeric design
// matrix, observed target, rows to predict) and gets back predictions plus an
// out-of-bag error estimate where lower is better.
//
// Bootstrap turns any Estimator into such a Learner. Ridge is a gonum
// regression estimator; adapters/golearn supplies the CART trees that make up
// the default forests.
package learner

import (
	"context"

	"github.com/wdm0006/rangerimpute/pkg/types"
)

// Task is one fit-and-predict request. X and Predict are row-major with one
// column per predictor; Y holds the observed target in encoded form.
type Task struct {
	Target  string
	Tag     types.Tag
	Classes int
	X       [][]float64
	Y       []float64
	// Weights are optional non-negative case weights aligned with X.
	Weights []float64
	Predict [][]float64
	// PredictTraining asks for predictions on the X rows as well, used as
	// the donor side of predictive mean matching.
	PredictTraining bool
	Params          Params
	Seed            int64
}

// Result carries predictions aligned with Task.Predict and, when requested,
// with Task.X.
type Result struct {
	Predictions []float64
	Training    []float64
	OOBError    float64
}

// Learner fits a model for one target and predicts.
type Learner interface {
	FitPredict(ctx context.Context, t Task) (Result, error)
}

// Func adapts a function to Learner.
type Func func(ctx context.Context, t Task) (Result, error)

func (f Func) FitPredict(ctx context.Context, t Task) (Result, error) { return f(ctx, t) }

// Auto routes classification targets and regression targets to different
// learners.
type Auto struct {
	Classifier Learner
	Regressor  Learner
}

func (a Auto) FitPredict(ctx context.Context, t Task) (Result, error) {
	if t.Tag.Classification() {
		return a.Classifier.FitPredict(ctx, t)
	}
	return a.Regressor.FitPredict(ctx, t)
}
