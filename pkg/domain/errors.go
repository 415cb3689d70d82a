package domain

import (
	"errors"
	"fmt"
)

// Protocol errors. They are reported through the tracker error handler and
// never abort a chained call.
var (
	ErrDuplicateKey        = errors.New("sample already exists")
	ErrAlreadyStarted      = errors.New("sample has already started")
	ErrAlreadyStopped      = errors.New("sample has already stopped")
	ErrNotStarted          = errors.New("sample has not been started")
	ErrChildNotAttached    = errors.New("child is not attached")
	ErrWaterfallCannotStop = errors.New("sample is a waterfall and cannot be manually stopped")
	ErrNotStopped          = errors.New("sample must be stopped to backfill")
)

// Misuse errors. They indicate a broken API contract.
var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

// SampleError is a protocol error raised by an operation on a sample.
type SampleError struct {
	Op  string // Operation that failed (start, stop, waterfall, backfill, create)
	Key string // Full key of the sample the error is about
	Err error  // One of the protocol sentinel errors
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("%s sample[%s]: %v", e.Op, e.Key, e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}

// ArgumentError is raised (as a panic value) when an operation is called
// with a missing or invalid argument.
type ArgumentError struct {
	Op       string
	Argument string
	Reason   string
	Err      error
}

func (e *ArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v %q", e.Op, e.Err, e.Argument)
	}
	return fmt.Sprintf("%s: %v %q: %s", e.Op, e.Err, e.Argument, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// Missing builds an ArgumentError for an argument that was not provided.
func Missing(op, argument string) *ArgumentError {
	return &ArgumentError{Op: op, Argument: argument, Err: ErrMissingArgument}
}

// Invalid builds an ArgumentError for an argument with a bad value.
func Invalid(op, argument, reason string) *ArgumentError {
	return &ArgumentError{Op: op, Argument: argument, Reason: reason, Err: ErrInvalidArgument}
}

// IsProtocolError reports whether err is a non-fatal sample error.
func IsProtocolError(err error) bool {
	var se *SampleError
	return errors.As(err, &se)
}
