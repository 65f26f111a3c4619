package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message safe for external callers.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional internal context. Never serialized to
	// external responses — see Response.
	Details map[string]any `json:"-"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single internal detail key-value pair and returns the
// receiver. Details are for logging and alerting, never for responses.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// CodeOf extracts the ErrorCode from any error. Returns ErrCodeInternal for
// non-AppError values.
func CodeOf(err error) ErrorCode {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// --- Constructors ---

// InvalidCredentials creates the uniform login failure error. The message is
// deliberately identical for unknown identifiers and wrong passwords.
func InvalidCredentials() *AppError {
	return &AppError{
		Code: ErrCodeInvalidCredentials, Message: "Invalid identifier or password.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// AccountDisabled creates the error for a disabled principal. This case is
// allowed to be distinguishable since it is not a credential-guessing vector.
func AccountDisabled() *AppError {
	return &AppError{
		Code: ErrCodeAccountDisabled, Message: "This account has been disabled.",
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// MalformedToken creates the error for a token that failed to parse.
func MalformedToken(cause error) *AppError {
	return &AppError{
		Code: ErrCodeMalformedToken, Message: "The token is malformed.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false, Cause: cause,
	}
}

// BadSignature creates the error for a token whose signature did not verify.
func BadSignature(cause error) *AppError {
	return &AppError{
		Code: ErrCodeBadSignature, Message: "The token signature is invalid.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false, Cause: cause,
	}
}

// Expired creates the error for a token past its expiry.
func Expired() *AppError {
	return &AppError{
		Code: ErrCodeExpired, Message: "The token has expired.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// NotYetValid creates the error for a token whose not-before is in the future.
func NotYetValid() *AppError {
	return &AppError{
		Code: ErrCodeNotYetValid, Message: "The token is not yet valid.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// WrongTokenKind creates the error for a kind-claim mismatch.
func WrongTokenKind(expected string) *AppError {
	return (&AppError{
		Code: ErrCodeWrongTokenKind, Message: "The token cannot be used for this operation.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}).WithDetail("expected_kind", expected)
}

// ReuseDetected creates the security error for a replayed refresh token.
func ReuseDetected() *AppError {
	return &AppError{
		Code: ErrCodeReuseDetected, Message: "The token has been revoked.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// InvalidOrExpiredState creates the error for an unknown, consumed, or
// expired authorization flow state nonce.
func InvalidOrExpiredState() *AppError {
	return &AppError{
		Code: ErrCodeInvalidOrExpiredState, Message: "The authorization request is invalid or has expired.",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// InsufficientScope creates the authorization denial error.
func InsufficientScope() *AppError {
	return &AppError{
		Code: ErrCodeInsufficientScope, Message: "You don't have permission to perform this action.",
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// UpstreamUnavailable creates the retryable error for a failed or timed-out
// collaborator call.
func UpstreamUnavailable(upstream string, cause error) *AppError {
	return (&AppError{
		Code: ErrCodeUpstreamUnavailable, Message: "A required service is temporarily unavailable. Please try again.",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true, Cause: cause,
	}).WithDetail("upstream", upstream)
}

// Internal creates a new AppError for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
