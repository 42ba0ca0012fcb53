package impute

import (
	"time"

	"github.com/rs/zerolog"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/formula"
)

// State is the engine's position in its run.
type State int

const (
	Initializing State = iota
	IterationRunning
	Converged
	MaxIterReached
	Aborted
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case IterationRunning:
		return "running"
	case Converged:
		return "converged"
	case MaxIterReached:
		return "max_iter_reached"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// ColumnError is one target's error estimate for one pass.
type ColumnError struct {
	Column string
	// OOB is the learner's raw out-of-bag error.
	OOB float64
	// Normalized is OOB divided by the observed variance for regression
	// targets and OOB itself for classification targets.
	Normalized float64
}

// IterationReport summarizes one completed pass.
type IterationReport struct {
	RunID     string
	Iteration int
	Columns   []ColumnError
	Aggregate float64
	// Improved is true when this pass became the best snapshot.
	Improved bool
	Elapsed  time.Duration
}

func (r IterationReport) MarshalZerologObject(e *zerolog.Event) {
	e.Int("iteration", r.Iteration).Float64("aggregate", r.Aggregate).Bool("improved", r.Improved).Dur("elapsed", r.Elapsed)
	d := zerolog.Dict()
	for _, c := range r.Columns {
		d.Float64(c.Column, c.Normalized)
	}
	e.Dict("columns", d)
}

// Result is the outcome of a run. Frame always has the input's shape.
type Result struct {
	RunID      string
	Frame      *df.Frame
	State      State
	Iterations []IterationReport
	// Best is the 1-based pass whose values Frame holds, 0 when no pass ran.
	Best        int
	BestError   float64
	Plan        *formula.Plan
	Diagnostics []formula.Diagnostic
	// Reason is set when State is Aborted.
	Reason  error
	Elapsed time.Duration
}

func (r *Result) MarshalZerologObject(e *zerolog.Event) {
	e.Str("run", r.RunID).Str("state", r.State.String()).Int("iterations", len(r.Iterations)).
		Int("best", r.Best).Float64("best_error", r.BestError).Int("diagnostics", len(r.Diagnostics)).Dur("elapsed", r.Elapsed)
	if r.Reason != nil {
		e.Str("reason", r.Reason.Error())
	}
}
