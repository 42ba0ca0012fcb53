// Package errors holds the error taxonomy of the imputation engine. Fatal
// conditions (bad specification, learner failure) are returned as errors;
// per-column data-quality conditions are reported as diagnostics carrying one
// of the sentinel kinds below and never abort a run.
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var (
	// ErrUnsupportedColumnType marks a column the type registry cannot encode.
	ErrUnsupportedColumnType = errors.New("unsupported column type")
	// ErrEmptyTargetSet means no requested column needs imputation.
	ErrEmptyTargetSet = errors.New("empty target set")
	// ErrNoUsablePredictors means a target is left with no predictors.
	ErrNoUsablePredictors = errors.New("no usable predictors")
	// ErrInvalidSpecification means the target/predictor expression is malformed.
	ErrInvalidSpecification = errors.New("invalid specification")
	// ErrLearnerFailure means the learner could not fit or predict.
	ErrLearnerFailure = errors.New("learner failure")
	// ErrZeroVarianceColumn marks a column with a single distinct value.
	ErrZeroVarianceColumn = errors.New("zero variance column")
	// ErrAllMissing marks a column with no observed value.
	ErrAllMissing = errors.New("all values missing")
	// ErrResidualMissingness marks a predictor with missing values that is not imputed.
	ErrResidualMissingness = errors.New("predictor has residual missingness")
	// ErrInvalidConfig means a run was configured with out-of-range values.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SpecError reports unknown or malformed column references.
type SpecError struct {
	Expr    string
	Unknown []string
	Reason  string
}

func (e *SpecError) Error() string {
	var b strings.Builder
	b.WriteString("invalid specification")
	if e.Expr != "" {
		fmt.Fprintf(&b, " %q", e.Expr)
	}
	if len(e.Unknown) > 0 {
		fmt.Fprintf(&b, ": unknown columns %s", strings.Join(e.Unknown, ", "))
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

func (e *SpecError) Is(target error) bool { return target == ErrInvalidSpecification }

func (e *SpecError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("expr", e.Expr).Strs("unknown", e.Unknown).Str("reason", e.Reason).Str("type", "SpecError")
}

// NewSpecError creates a SpecError with a stack trace attached.
func NewSpecError(expr, reason string, unknown ...string) error {
	return errors.WithStack(&SpecError{Expr: expr, Unknown: unknown, Reason: reason})
}

// LearnerError wraps a failure of the external learner for one target column.
type LearnerError struct {
	Column    string
	Iteration int
	Err       error
}

func (e *LearnerError) Error() string {
	return fmt.Sprintf("learner failure on column %s (iteration %d): %v", e.Column, e.Iteration, e.Err)
}

func (e *LearnerError) Unwrap() error { return e.Err }

func (e *LearnerError) Is(target error) bool { return target == ErrLearnerFailure }

func (e *LearnerError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("column", e.Column).Int("iteration", e.Iteration).Str("type", "LearnerError")
	if e.Err != nil {
		ev.Str("cause", e.Err.Error())
	}
}

// NewLearnerError creates a LearnerError with a stack trace attached.
func NewLearnerError(column string, iteration int, err error) error {
	return errors.WithStack(&LearnerError{Column: column, Iteration: iteration, Err: err})
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Wrap annotates err with a message and a stack trace.
func Wrap(err error, message string) error { return errors.Wrap(err, message) }

// Wrapf annotates err with a formatted message and a stack trace.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error { return errors.New(message) }

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// WithStack attaches a stack trace to err.
func WithStack(err error) error { return errors.WithStack(err) }
