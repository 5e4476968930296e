package transactions

import (
	"errors"
	"fmt"
)

// Failure categories surfaced to the HTTP boundary. Handlers map these with
// errors.Is: validation 400, duplicate 409, upstream 502, persistence 500.
var (
	ErrValidation  = errors.New("validation failed")
	ErrDuplicate   = errors.New("duplicate conflict")
	ErrUpstream    = errors.New("upstream aggregator failure")
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError reports the first malformed item in a batch. The whole
// batch is rejected before anything is written.
type ValidationError struct {
	Index int    // position in the submitted batch
	Field string // missing or malformed field
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transaction %d: missing or invalid %s", e.Index, e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
