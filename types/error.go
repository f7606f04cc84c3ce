package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the bridge.
type ErrorCode string

// Discovery error codes
const (
	ErrDiscoveryUnreachable        ErrorCode = "DISCOVERY_UNREACHABLE"
	ErrDiscoveryTimeout            ErrorCode = "DISCOVERY_TIMEOUT"
	ErrDiscoveryMalformed          ErrorCode = "DISCOVERY_MALFORMED"
	ErrDiscoveryUnsupportedVersion ErrorCode = "DISCOVERY_UNSUPPORTED_VERSION"
)

// Routing error codes
const (
	ErrRoutingNoCandidate        ErrorCode = "ROUTING_NO_CANDIDATE"
	ErrRoutingBackendUnavailable ErrorCode = "ROUTING_BACKEND_UNAVAILABLE"
	ErrRoutingValidationRejected ErrorCode = "ROUTING_VALIDATION_REJECTED"
)

// Execution error codes
const (
	ErrExecutionNetwork    ErrorCode = "EXECUTION_NETWORK"
	ErrExecutionTimeout    ErrorCode = "EXECUTION_TIMEOUT"
	ErrExecutionNonSuccess ErrorCode = "EXECUTION_NON_SUCCESS"
	ErrExecutionMalformed  ErrorCode = "EXECUTION_MALFORMED"
)

// General error codes
const (
	ErrAgentNotFound  ErrorCode = "AGENT_NOT_FOUND"
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrConfigInvalid  ErrorCode = "CONFIG_INVALID"
	ErrInternalError  ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Protocol   string    `json:"protocol,omitempty"`
	AgentID    string    `json:"agent_id,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewDiscoveryError creates a discovery error. Unreachable and timeout
// probes are transient and marked retryable; malformed descriptors and
// version mismatches are not.
func NewDiscoveryError(code ErrorCode, message string) *Error {
	retryable := code == ErrDiscoveryUnreachable || code == ErrDiscoveryTimeout
	return &Error{Code: code, Message: message, Retryable: retryable}
}

// NewRoutingError creates a routing error.
func NewRoutingError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Retryable: code == ErrRoutingBackendUnavailable}
}

// NewExecutionError creates an execution error.
func NewExecutionError(code ErrorCode, message string) *Error {
	retryable := code == ErrExecutionNetwork || code == ErrExecutionTimeout
	return &Error{Code: code, Message: message, Retryable: retryable}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProtocol records the protocol the error originated from.
func (e *Error) WithProtocol(protocol Protocol) *Error {
	e.Protocol = string(protocol)
	return e
}

// WithAgent records the agent the error originated from.
func (e *Error) WithAgent(agentID string) *Error {
	e.AgentID = agentID
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
