package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError is a recovered panic turned into an error.
type PanicError struct {
	Operation  string
	PanicValue interface{}
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Recover converts a panic in the calling function into *errp. Use it as
//
//	defer errors.Recover("golearn.Fit", &err)
//
// Third-party learners panic on malformed grids instead of returning errors.
func Recover(operation string, errp *error) {
	if r := recover(); r != nil {
		pe := &PanicError{Operation: operation, PanicValue: r, StackTrace: string(debug.Stack())}
		*errp = errors.WithStack(pe)
	}
}
