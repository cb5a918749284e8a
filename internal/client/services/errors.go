package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInconsistent means a step expected a record the cache no longer
	// holds, usually because another device removed it.
	ErrInconsistent = errors.New("inconsistent state")
	ErrEmptyWine    = errors.New("wine name is empty")
	ErrNotBound     = errors.New("no cellar is bound to this device")
	ErrInvalidCode  = errors.New("invalid join code")
	ErrNothingDrawn = errors.New("no bottle matches the filters")
)

// OpKind names a single remote write inside a multi-step operation.
type OpKind string

const (
	OpSaveWine       OpKind = "save wine"
	OpDeleteWine     OpKind = "delete wine"
	OpCreateQuantity OpKind = "create quantity"
	OpUpdateQuantity OpKind = "update quantity"
	OpDeleteQuantity OpKind = "delete quantity"
)

// FailedOp is one sub-operation that did not complete.
type FailedOp struct {
	Kind OpKind
	ID   string
	Year int
	Err  error
}

func (o FailedOp) String() string {
	if o.ID == "" {
		return fmt.Sprintf("%s (year %d): %v", o.Kind, o.Year, o.Err)
	}
	return fmt.Sprintf("%s %s: %v", o.Kind, o.ID, o.Err)
}

// PartialFailureError reports the sub-operations of a save that failed.
// Sibling operations that succeeded are not rolled back.
type PartialFailureError struct {
	Ops []FailedOp
}

func (e *PartialFailureError) Error() string {
	parts := make([]string, len(e.Ops))
	for i, op := range e.Ops {
		parts[i] = op.String()
	}
	return fmt.Sprintf("%d operation(s) failed: %s", len(e.Ops), strings.Join(parts, "; "))
}

func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, len(e.Ops))
	for i, op := range e.Ops {
		errs[i] = op.Err
	}
	return errs
}

func (e *PartialFailureError) add(op FailedOp) {
	e.Ops = append(e.Ops, op)
}

// errOrNil keeps a typed nil pointer from escaping as a non-nil error.
func (e *PartialFailureError) errOrNil() error {
	if e == nil || len(e.Ops) == 0 {
		return nil
	}
	return e
}
