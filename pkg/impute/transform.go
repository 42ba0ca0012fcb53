package impute

import (
	"context"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/formula"
)

func (im *Imputer) Name() string { return "impute_chained" }

// Apply runs the imputer with its configured formula so it can be used as a
// pipeline step.
func (im *Imputer) Apply(ctx context.Context, f *df.Frame) (*df.Frame, error) {
	spec := im.cfg.Formula
	if spec.Targets == nil && spec.Predictors == nil {
		spec = formula.Default()
	}
	res, err := im.Run(ctx, f, spec)
	if err != nil {
		return nil, err
	}
	return res.Frame, nil
}
