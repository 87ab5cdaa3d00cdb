package dynamo

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a stable, machine-readable error classification.
type Code string

const (
	CodeInvalidConfig        Code = "config_invalid"
	CodeNotImplemented       Code = "method_not_implemented"
	CodeBlocked              Code = "compatibility_blocked"
	CodeCanceled             Code = "run_canceled"
	CodeRunNotFound          Code = "run_not_found"
	CodeNumericalInstability Code = "numerical_instability"
)

// Domain errors for simulation operations. Match them with errors.Is.
var (
	// ErrInvalidConfig indicates a missing or out-of-range configuration field.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrNotImplemented indicates a method variant that cannot run.
	ErrNotImplemented = errors.New("dynamo: method not implemented")

	// ErrBlocked indicates a (method, mode) pair refused by the compatibility policy.
	ErrBlocked = errors.New("dynamo: method/mode combination blocked")

	// ErrCanceled indicates the run loop stopped on a cancellation request.
	ErrCanceled = errors.New("dynamo: simulation canceled")

	// ErrRunNotFound indicates an unknown run identifier.
	ErrRunNotFound = errors.New("dynamo: run not found")

	// ErrUnstable indicates a non-finite diagnostic when the caller asked to abort on one.
	ErrUnstable = errors.New("dynamo: simulation unstable (NaN or Inf detected)")
)

var sentinels = map[Code]error{
	CodeInvalidConfig:        ErrInvalidConfig,
	CodeNotImplemented:       ErrNotImplemented,
	CodeBlocked:              ErrBlocked,
	CodeCanceled:             ErrCanceled,
	CodeRunNotFound:          ErrRunNotFound,
	CodeNumericalInstability: ErrUnstable,
}

// Error is the structured error returned across the engine boundary.
type Error struct {
	Code    Code
	Op      string
	Method  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Code))
	if e.Method != "" {
		fmt.Fprintf(&b, " (method %s)", e.Method)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's code.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// Invalidf builds a configuration error.
func Invalidf(op, format string, args ...any) *Error {
	return &Error{Code: CodeInvalidConfig, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NotImplemented builds the error raised by stub method variants.
func NotImplemented(method, capability string) *Error {
	return &Error{
		Code:    CodeNotImplemented,
		Op:      method + "." + capability,
		Method:  method,
		Message: capability + " is not available for this method",
	}
}

// Blocked builds the compatibility error raised before dispatch.
func Blocked(method, mode string) *Error {
	return &Error{
		Code:    CodeBlocked,
		Op:      "dispatch",
		Method:  method,
		Message: fmt.Sprintf("mode %q is blocked for this method", mode),
	}
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// SimulationError wraps an error with the step at which it occurred.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
