package impute

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	"github.com/wdm0006/rangerimpute/pkg/formula"
	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

// Multiple runs m independent imputations of f concurrently, run i seeded
// with cfg.Seed+i. Each run works on its own copy of f. The first failure
// cancels the remaining runs and is returned; results are in seed order.
func Multiple(ctx context.Context, f *df.Frame, spec formula.Spec, m int, cfg Config) ([]*Result, error) {
	if m < 1 {
		return nil, ierr.Wrapf(ierr.ErrInvalidConfig, "multiple imputation: m must be positive, got %d", m)
	}
	out := make([]*Result, m)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < m; i++ {
		i := i
		c := cfg
		c.Seed = cfg.Seed + int64(i)
		c.Logger = cfg.Logger.With().Int("imputation", i).Logger()
		g.Go(func() error {
			res, err := New(c).Run(gctx, f, spec)
			if err != nil {
				return ierr.Wrapf(err, "imputation %d", i)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
