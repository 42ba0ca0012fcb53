package runlog

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/formula"
	"github.com/wdm0006/rangerimpute/pkg/impute"
	"github.com/wdm0006/rangerimpute/pkg/learner"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordRun(t *testing.T) {
	s := openTemp(t)
	s.Source = "data.csv"
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, s.Iteration(ctx, impute.IterationReport{RunID: id, Iteration: 1, Aggregate: 0.4, Improved: true, Elapsed: 1500 * time.Millisecond,
		Columns: []impute.ColumnError{{Column: "y", OOB: 2, Normalized: 0.4}, {Column: "g", OOB: math.NaN(), Normalized: math.NaN()}}}))
	require.NoError(t, s.Iteration(ctx, impute.IterationReport{RunID: id, Iteration: 2, Aggregate: 0.5,
		Columns: []impute.ColumnError{{Column: "y", OOB: 2.5, Normalized: 0.5}}}))
	require.NoError(t, s.Finish(ctx, &impute.Result{RunID: id, State: impute.Converged, Best: 1, BestError: 0.4,
		Iterations: make([]impute.IterationReport, 2), Elapsed: 3 * time.Second,
		Diagnostics: []formula.Diagnostic{{Column: "z", Kind: ierr.ErrZeroVarianceColumn, Reason: "one distinct value"}}}))

	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "data.csv", r.Source)
	assert.Equal(t, "converged", r.State)
	assert.Equal(t, 2, r.Iterations)
	assert.Equal(t, 1, r.Best)
	require.NotNil(t, r.BestError)
	assert.InDelta(t, 0.4, *r.BestError, 1e-12)
	assert.NotNil(t, r.FinishedAt)
	assert.Equal(t, 3*time.Second, r.Elapsed)

	passes, err := s.Passes(ctx, id)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	assert.True(t, passes[0].Improved)
	assert.Equal(t, 1500*time.Millisecond, passes[0].Elapsed)
	require.Len(t, passes[0].Columns, 2)
	assert.Equal(t, "y", passes[0].Columns[0].Column)
	assert.True(t, math.IsNaN(passes[0].Columns[1].Normalized), "non-finite errors are stored as NULL")
	assert.InDelta(t, 0.5, *passes[1].Aggregate, 1e-12)

	diags, err := s.Diagnostics(ctx, id)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, Diagnostic{Column: "z", Kind: ierr.ErrZeroVarianceColumn.Error(), Reason: "one distinct value"}, diags[0])
}

func TestAbortedRunWithoutPasses(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, s.Finish(ctx, &impute.Result{RunID: id, State: impute.Aborted, Reason: ierr.ErrEmptyTargetSet}))
	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "aborted", runs[0].State)
	assert.Nil(t, runs[0].BestError)
	assert.Contains(t, runs[0].Reason, ierr.ErrEmptyTargetSet.Error())
	passes, err := s.Passes(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, passes)
}

func TestRunsNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		id := uuid.NewString()
		ids = append(ids, id)
		require.NoError(t, s.Finish(ctx, &impute.Result{RunID: id, State: impute.MaxIterReached}))
	}
	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Finish(context.Background(), &impute.Result{RunID: "r1", State: impute.Converged}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	runs, err := s.Runs(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestEngineReporting(t *testing.T) {
	x := df.NewFloatColumn("x", 0)
	y := df.NewFloatColumn("y", 0)
	for i := 0; i < 40; i++ {
		x.Append(float64(i))
		if i%4 == 0 {
			y.AppendNull()
		} else {
			y.Append(3*float64(i) + 1)
		}
	}
	fr, err := df.FromColumns(x, y)
	require.NoError(t, err)

	s := openTemp(t)
	cfg := impute.DefaultConfig()
	cfg.Learner = learner.BaggedRidge()
	cfg.Params = learner.Params{"num.trees": 3}
	cfg.MaxIter = 3
	cfg.Reporters = []impute.Reporter{s}
	res, err := impute.New(cfg).Run(context.Background(), fr, formula.Default())
	require.NoError(t, err)

	runs, err := s.Runs(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, res.State.String(), runs[0].State)
	passes, err := s.Passes(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, passes, len(res.Iterations))
	assert.Equal(t, "y", passes[0].Columns[0].Column)
}
