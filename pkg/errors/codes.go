package errors

// Error codes for categorizing errors.
// These codes map to HTTP status codes where the inspector surfaces them.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeCancelled indicates the operation was cancelled.
	CodeCancelled = "CANCELLED"

	// CodeUnknown indicates an unknown error occurred.
	CodeUnknown = "UNKNOWN"

	// CodeInvalidArgument indicates client specified an invalid argument.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeDeadlineExceeded indicates operation deadline was exceeded.
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound = "NOT_FOUND"

	// CodeFailedPrecondition indicates operation was rejected because the system
	// is not in a required state.
	CodeFailedPrecondition = "FAILED_PRECONDITION"

	// CodeUnimplemented indicates operation is not implemented or not supported.
	CodeUnimplemented = "UNIMPLEMENTED"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"

	// CodeUnavailable indicates the service is currently unavailable.
	CodeUnavailable = "UNAVAILABLE"

	// Domain-specific error codes

	// CodeValidation indicates input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeTimeout indicates an operation timed out.
	CodeTimeout = "TIMEOUT"

	// CodeTransportUnavailable indicates the named host channel does not exist.
	CodeTransportUnavailable = "TRANSPORT_UNAVAILABLE"

	// CodeHostError indicates the host reported a failure for a request.
	CodeHostError = "HOST_ERROR"

	// CodeClientClosed indicates the bridge client was closed before a call settled.
	CodeClientClosed = "CLIENT_CLOSED"

	// CodeNetworkError indicates a network operation failed.
	CodeNetworkError = "NETWORK_ERROR"

	// CodeConfigError indicates a configuration error.
	CodeConfigError = "CONFIG_ERROR"

	// CodeSerializationError indicates serialization/deserialization failed.
	CodeSerializationError = "SERIALIZATION_ERROR"
)

// ErrorCategory represents a high-level error category.
type ErrorCategory string

const (
	// CategoryClient indicates a caller-side error.
	CategoryClient ErrorCategory = "CLIENT_ERROR"

	// CategoryServer indicates an internal error.
	CategoryServer ErrorCategory = "SERVER_ERROR"

	// CategoryHost indicates the host rejected the request.
	CategoryHost ErrorCategory = "HOST_ERROR"

	// CategoryNetwork indicates a transport-related error.
	CategoryNetwork ErrorCategory = "NETWORK_ERROR"

	// CategoryTimeout indicates a timeout error.
	CategoryTimeout ErrorCategory = "TIMEOUT_ERROR"

	// CategoryValidation indicates a validation error.
	CategoryValidation ErrorCategory = "VALIDATION_ERROR"
)

// GetCategory returns the category for an error code.
func GetCategory(code string) ErrorCategory {
	switch code {
	case CodeInvalidArgument, CodeNotFound, CodeFailedPrecondition:
		return CategoryClient

	case CodeValidation, CodeConfigError:
		return CategoryValidation

	case CodeHostError:
		return CategoryHost

	case CodeTimeout, CodeDeadlineExceeded:
		return CategoryTimeout

	case CodeNetworkError, CodeTransportUnavailable, CodeUnavailable:
		return CategoryNetwork

	default:
		return CategoryServer
	}
}

// IsRetryable returns true if an error with the given code should be retried.
func IsRetryable(code string) bool {
	switch code {
	case CodeTimeout, CodeDeadlineExceeded,
		CodeUnavailable, CodeNetworkError,
		CodeTransportUnavailable:
		return true
	default:
		return false
	}
}

// IsClientError returns true if the error is a caller-side error.
func IsClientError(code string) bool {
	return GetCategory(code) == CategoryClient
}

// IsServerError returns true if the error is an internal error.
func IsServerError(code string) bool {
	return GetCategory(code) == CategoryServer
}
