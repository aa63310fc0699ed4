package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks
var (
	// ErrTransportUnavailable is returned when a named host channel is not reachable.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrInvalidArgument is returned when a caller passes an unusable argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timeout")

	// ErrClientClosed is returned for calls still outstanding when a bridge client closes.
	ErrClientClosed = errors.New("bridge client closed")

	// ErrInternal is returned when an internal error occurs.
	ErrInternal = errors.New("internal error")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// TransportUnavailableError reports that a host channel does not exist.
type TransportUnavailableError struct {
	*BaseError
	Channel string
}

// NewTransportUnavailableError creates a new transport unavailable error.
func NewTransportUnavailableError(channel string) *TransportUnavailableError {
	return &TransportUnavailableError{
		BaseError: &BaseError{
			code:    CodeTransportUnavailable,
			message: fmt.Sprintf("host channel not found: %s", channel),
			stack:   captureStack(1),
		},
		Channel: channel,
	}
}

// Is lets errors.Is match ErrTransportUnavailable.
func (e *TransportUnavailableError) Is(target error) bool {
	return target == ErrTransportUnavailable
}

// InvalidArgumentError represents a caller-side argument error.
type InvalidArgumentError struct {
	*BaseError
	Argument string
}

// NewInvalidArgumentError creates a new invalid argument error.
func NewInvalidArgumentError(argument, message string) *InvalidArgumentError {
	return &InvalidArgumentError{
		BaseError: &BaseError{
			code:    CodeInvalidArgument,
			message: message,
			stack:   captureStack(1),
		},
		Argument: argument,
	}
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	if e.Argument != "" {
		return fmt.Sprintf("invalid argument: %s: %s", e.Argument, e.message)
	}
	return fmt.Sprintf("invalid argument: %s", e.message)
}

// Is lets errors.Is match ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
			stack:   captureStack(1),
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// InternalError represents an internal error.
type InternalError struct {
	*BaseError
	Operation string
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *InternalError {
	if message == "" {
		message = "internal error"
	}
	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// WithOperation sets the operation context.
func (e *InternalError) WithOperation(op string) *InternalError {
	e.Operation = op
	return e
}

// TimeoutError represents a timeout error.
type TimeoutError struct {
	*BaseError
	Operation string
	Duration  string
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(operation, duration string) *TimeoutError {
	message := "operation timeout"
	if operation != "" {
		message = fmt.Sprintf("%s timeout", operation)
	}
	return &TimeoutError{
		BaseError: &BaseError{
			code:    CodeTimeout,
			message: message,
			stack:   captureStack(1),
		},
		Operation: operation,
		Duration:  duration,
	}
}

// Is lets errors.Is match ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// ClosedError is returned to calls that were still pending when the client closed.
type ClosedError struct {
	*BaseError
	Channel string
}

// NewClosedError creates a new closed error for a call on channel.
func NewClosedError(channel string) *ClosedError {
	return &ClosedError{
		BaseError: &BaseError{
			code:    CodeClientClosed,
			message: fmt.Sprintf("bridge client closed with %s outstanding", channel),
			stack:   captureStack(1),
		},
		Channel: channel,
	}
}

// Is lets errors.Is match ErrClientClosed.
func (e *ClosedError) Is(target error) bool {
	return target == ErrClientClosed
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the type
// and adds the cause chain. Otherwise, it creates an InternalError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already our error type, wrap it
	if e, ok := err.(Error); ok {
		return &BaseError{
			code:    e.Code(),
			message: message,
			cause:   err,
			stack:   captureStack(1),
		}
	}

	// Otherwise create an internal error
	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   err,
			stack:   captureStack(1),
		},
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeInternal,
		message: message,
		stack:   captureStack(1),
	}
}

// Newf creates a new error with a formatted message.
func Newf(format string, args ...interface{}) error {
	return New(fmt.Sprintf(format, args...))
}
