package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEncode indicates the tokenizer or encoder failed for one chunk.
	// The chunk's fragment is skipped; ingestion continues.
	ErrEncode = errors.New("encode failed")

	// ErrDimensionMismatch indicates the configured embedding dimension
	// disagrees with the encoder output or with fragments already stored.
	// Fatal at setup time: all later similarity comparisons would be
	// meaningless.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidConfig indicates the retrieval configuration is unusable.
	ErrInvalidConfig = errors.New("invalid retrieval config")

	// ErrAlreadyOpen indicates a knowledge base at the same path is
	// already registered with this process.
	ErrAlreadyOpen = errors.New("knowledge base already open")

	// ErrStoreClosed indicates an operation on a closed store handle.
	ErrStoreClosed = errors.New("store closed")

	// ErrEncoderUnavailable indicates no encoder is configured; ingestion
	// and semantic query are disabled.
	ErrEncoderUnavailable = errors.New("encoder unavailable")
)

// Store error codes. Hosts dispatch on these numbers, so they are part
// of the stable surface.
const (
	CodeSchema     = 5642
	CodeTextIndex  = 156424
	CodePrepare    = 1043
	CodeBind       = 3091
	CodeAppend     = 2323
	CodeRow        = 7690
	CodeClose      = 4106
	CodeOpen       = 782
	CodeConnect    = 3338
	CodeKBConflict = 26 << 8
)

// StoreError is a store-level failure surfaced to the caller as an error
// code rather than thrown across the pipeline boundary.
type StoreError struct {
	// Code is the numeric error kind.
	Code int

	// Op names the failing store operation.
	Op string

	// Err is the underlying driver error, may be nil.
	Err error
}

// Error implements error.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store %s (code %d): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("store %s (code %d)", e.Op, e.Code)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err with a numeric store error code.
func NewStoreError(code int, op string, err error) *StoreError {
	return &StoreError{Code: code, Op: op, Err: err}
}

// StoreCode extracts the numeric code from err, or 0 when err is not a
// store error.
func StoreCode(err error) int {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
