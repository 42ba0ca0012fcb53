package metrics

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	"github.com/wdm0006/rangerimpute/pkg/formula"
	"github.com/wdm0006/rangerimpute/pkg/impute"
)

func TestRecorder(t *testing.T) {
	r := New()
	ctx := context.Background()
	require.NoError(t, r.Iteration(ctx, impute.IterationReport{Iteration: 1, Aggregate: 0.3, Elapsed: time.Second,
		Columns: []impute.ColumnError{{Column: "y", Normalized: 0.3}, {Column: "g", Normalized: math.NaN()}}}))
	require.NoError(t, r.Iteration(ctx, impute.IterationReport{Iteration: 2, Aggregate: math.NaN(), Elapsed: 2 * time.Second,
		Columns: []impute.ColumnError{{Column: "y", Normalized: 0.25}}}))
	require.NoError(t, r.Finish(ctx, &impute.Result{State: impute.Converged, Elapsed: 2 * time.Second,
		Diagnostics: []formula.Diagnostic{{Column: "z", Kind: ierr.ErrZeroVarianceColumn}, {Column: "w", Kind: ierr.ErrZeroVarianceColumn}}}))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.passes))
	assert.Equal(t, 0.3, testutil.ToFloat64(r.aggregate), "NaN aggregates keep the last finite value")
	assert.Equal(t, 0.25, testutil.ToFloat64(r.columnError.WithLabelValues("y")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.columnError), "non-finite column errors are not exported")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("converged")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.diagnostics.WithLabelValues(ierr.ErrZeroVarianceColumn.Error())))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	require.NoError(t, r.Finish(context.Background(), &impute.Result{State: impute.Aborted}))
	p := filepath.Join(t.TempDir(), "rangerimpute.prom")
	require.NoError(t, r.WriteTextfile(p))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `rangerimpute_runs_total{state="aborted"} 1`), string(b))
}
