package impute

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/wdm0006/rangerimpute/adapters/golearn"
	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	"github.com/wdm0006/rangerimpute/pkg/formula"
	"github.com/wdm0006/rangerimpute/pkg/learner"
	"github.com/wdm0006/rangerimpute/pkg/logging"
)

// Fill selects the initial marginal fill for numeric and temporal targets.
// Other targets always start from their mode.
type Fill int

const (
	FillMean Fill = iota
	FillMedian
)

// ZeroVariancePolicy decides what happens to the missing cells of a target
// excluded for having a single distinct observed value.
type ZeroVariancePolicy int

const (
	// ZeroVarianceLeave keeps the cells missing.
	ZeroVarianceLeave ZeroVariancePolicy = iota
	// ZeroVarianceConstant fills them with the single observed value.
	ZeroVarianceConstant
)

// Config controls one imputation run.
type Config struct {
	// PMMK is the donor count for predictive mean matching; 0 disables it.
	PMMK int
	// MaxIter caps the number of passes over the targets.
	MaxIter int
	// Tolerance is the smallest aggregate error decrease that counts as
	// an improvement.
	Tolerance float64
	// MaxDuration stops the run after the first completed pass past it.
	MaxDuration time.Duration
	// CaseWeights are optional non-negative per-row weights.
	CaseWeights  []float64
	Params       learner.Params
	Seed         int64
	Order        formula.Order
	InitialFill  Fill
	ZeroVariance ZeroVariancePolicy
	// Formula is used by Apply. The zero value means formula.Default().
	Formula   formula.Spec
	Learner   learner.Learner
	Reporters []Reporter
	Logger    zerolog.Logger
}

// DefaultConfig returns the documented defaults: ten passes, no PMM, mean
// fill and bagged golearn CART forests for every target.
func DefaultConfig() Config {
	return Config{
		MaxIter: 10,
		Seed:    1,
		Learner: DefaultLearner(),
		Logger:  logging.Nop(),
	}
}

// DefaultLearner routes classification targets to gini forests and
// regression targets to MSE forests.
func DefaultLearner() learner.Learner {
	return learner.Auto{Classifier: golearn.BaggedForest(), Regressor: golearn.BaggedForest()}
}

// RidgeLearner keeps the forests for classification targets and fits bagged
// ridge regressions for everything else.
func RidgeLearner() learner.Learner {
	return learner.Auto{Classifier: golearn.BaggedForest(), Regressor: learner.BaggedRidge()}
}

func (c Config) validate(rows int) error {
	if c.MaxIter < 1 {
		return ierr.Wrapf(ierr.ErrInvalidConfig, "max iterations must be positive, got %d", c.MaxIter)
	}
	if c.PMMK < 0 {
		return ierr.Wrapf(ierr.ErrInvalidConfig, "pmm.k must be >= 0, got %d", c.PMMK)
	}
	if c.Tolerance < 0 {
		return ierr.Wrapf(ierr.ErrInvalidConfig, "tolerance must be >= 0, got %v", c.Tolerance)
	}
	if c.Learner == nil {
		return ierr.Wrap(ierr.ErrInvalidConfig, "no learner")
	}
	if c.CaseWeights != nil {
		if len(c.CaseWeights) != rows {
			return ierr.Wrapf(ierr.ErrInvalidConfig, "%d case weights for %d rows", len(c.CaseWeights), rows)
		}
		for i, w := range c.CaseWeights {
			if !(w >= 0) {
				return ierr.Wrapf(ierr.ErrInvalidConfig, "case weight %v at row %d", w, i)
			}
		}
	}
	return nil
}
