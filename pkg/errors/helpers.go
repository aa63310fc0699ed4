package errors

import "errors"

// IsTransportUnavailable checks if an error indicates a missing host channel.
func IsTransportUnavailable(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportUnavailableError
	return errors.As(err, &transportErr) || errors.Is(err, ErrTransportUnavailable)
}

// IsInvalidArgument checks if an error is a caller argument error.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}

	var argErr *InvalidArgumentError
	return errors.As(err, &argErr) || errors.Is(err, ErrInvalidArgument)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsHostError checks if an error was reported by the host.
func IsHostError(err error) bool {
	_, ok := AsHostError(err)
	return ok
}

// IsTimeout checks if an error indicates a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr) || errors.Is(err, ErrTimeout)
}

// IsClosed checks if an error reports a closed bridge client.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}

	var closedErr *ClosedError
	return errors.As(err, &closedErr) || errors.Is(err, ErrClientClosed)
}

// IsInternal checks if an error is an internal error.
func IsInternal(err error) bool {
	if err == nil {
		return false
	}

	var internalErr *InternalError
	return errors.As(err, &internalErr) || errors.Is(err, ErrInternal)
}

// ShouldRetry checks if an operation should be retried based on the error.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	if IsTimeout(err) || IsTransportUnavailable(err) {
		return true
	}

	// Check the error code
	var customErr Error
	if errors.As(err, &customErr) {
		return IsRetryable(customErr.Code())
	}

	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	// Host errors carry host-defined codes; they are categorized as a whole.
	if IsHostError(err) {
		return CodeHostError
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	// Try to infer from sentinel errors
	switch {
	case IsTransportUnavailable(err):
		return CodeTransportUnavailable
	case IsInvalidArgument(err):
		return CodeInvalidArgument
	case IsTimeout(err):
		return CodeTimeout
	case IsClosed(err):
		return CodeClientClosed
	default:
		return CodeInternal
	}
}

// GetErrorMessage extracts a human-readable message from an error.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if hostErr, ok := AsHostError(err); ok {
		return hostErr.Error()
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Message()
	}

	return err.Error()
}

// Cause returns the underlying cause of an error.
// It unwraps the error chain until it finds the root cause.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		underlying := unwrapper.Unwrap()
		if underlying == nil {
			return err
		}
		err = underlying
	}
}
