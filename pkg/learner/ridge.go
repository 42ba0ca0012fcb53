package learner

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
)

// Ridge is an L2-penalized least squares fit on standardized predictors.
type Ridge struct {
	Lambda float64

	mean, scale []float64
	beta        []float64
	intercept   float64
}

// NewRidge is a Factory reading the "ridge.lambda" param (default 1e-3).
func NewRidge(t Task, _ int64) (Estimator, error) {
	l := t.Params.Float("ridge.lambda", 1e-3)
	if l < 0 {
		return nil, ierr.Newf("ridge.lambda must be >= 0, got %v", l)
	}
	return &Ridge{Lambda: l}, nil
}

func (r *Ridge) Fit(x [][]float64, y []float64) error {
	n := len(y)
	if n == 0 {
		return ierr.New("ridge: no rows")
	}
	p := 0
	if len(x) > 0 {
		p = len(x[0])
	}
	r.intercept = stat.Mean(y, nil)
	r.mean = make([]float64, p)
	r.scale = make([]float64, p)
	r.beta = make([]float64, p)
	if p == 0 {
		return nil
	}

	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		m, sd := stat.MeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		r.mean[j], r.scale[j] = m, sd
	}

	xm := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			xm.Set(i, j, (x[i][j]-r.mean[j])/r.scale[j])
		}
		yc.SetVec(i, y[i]-r.intercept)
	}

	var a mat.Dense
	a.Mul(xm.T(), xm)
	lambda := r.Lambda
	if lambda == 0 {
		lambda = 1e-9
	}
	for j := 0; j < p; j++ {
		a.Set(j, j, a.At(j, j)+lambda*float64(n))
	}
	var b mat.VecDense
	b.MulVec(xm.T(), yc)
	var beta mat.VecDense
	if err := beta.SolveVec(&a, &b); err != nil {
		return ierr.Wrap(err, "ridge solve")
	}
	for j := 0; j < p; j++ {
		r.beta[j] = beta.AtVec(j)
	}
	return nil
}

func (r *Ridge) Predict(x [][]float64) ([]float64, error) {
	coef := r.Coefficients()
	base := r.intercept
	for j, c := range coef {
		base -= c * r.mean[j]
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(coef) {
			return nil, ierr.Newf("ridge: row %d has %d features, want %d", i, len(row), len(coef))
		}
		v := base
		for j, c := range coef {
			v += c * row[j]
		}
		out[i] = v
	}
	return out, nil
}

// Coefficients returns the slope per predictor on the original scale.
func (r *Ridge) Coefficients() []float64 {
	out := make([]float64, len(r.beta))
	for j, b := range r.beta {
		out[j] = b / r.scale[j]
	}
	return out
}

// BaggedRidge bags ridge fits, a fast linear alternative to the forests.
func BaggedRidge() Learner { return Bootstrap{New: NewRidge} }
