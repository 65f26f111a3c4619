package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Credential verification errors
const (
	// ErrCodeInvalidCredentials covers both unknown identifier and wrong
	// password — callers must not be able to tell the two apart.
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	// ErrCodeAccountDisabled indicates the principal exists but is disabled.
	ErrCodeAccountDisabled ErrorCode = "ACCOUNT_DISABLED"
)

// Token errors
const (
	// ErrCodeMalformedToken indicates the token could not be parsed.
	ErrCodeMalformedToken ErrorCode = "MALFORMED_TOKEN"
	// ErrCodeBadSignature indicates the token signature did not verify.
	ErrCodeBadSignature ErrorCode = "BAD_SIGNATURE"
	// ErrCodeExpired indicates the token is past its expiry (with skew applied).
	ErrCodeExpired ErrorCode = "EXPIRED"
	// ErrCodeNotYetValid indicates the token's not-before is in the future.
	ErrCodeNotYetValid ErrorCode = "NOT_YET_VALID"
	// ErrCodeWrongTokenKind indicates an access token was presented where a
	// refresh token was expected, or vice versa.
	ErrCodeWrongTokenKind ErrorCode = "WRONG_TOKEN_KIND"
	// ErrCodeReuseDetected indicates a rotated-out refresh token was replayed.
	ErrCodeReuseDetected ErrorCode = "REUSE_DETECTED"
)

// Flow errors
const (
	// ErrCodeInvalidOrExpiredState indicates an authorization flow request
	// that cannot be served: an unknown, consumed, or expired state nonce,
	// or a provider the coordinator does not know.
	ErrCodeInvalidOrExpiredState ErrorCode = "INVALID_OR_EXPIRED_STATE"
)

// Authorization errors
const (
	// ErrCodeInsufficientScope indicates the principal holds none of the
	// required roles.
	ErrCodeInsufficientScope ErrorCode = "INSUFFICIENT_SCOPE"
)

// Upstream errors
const (
	// ErrCodeUpstreamUnavailable indicates a collaborator (credential store,
	// external provider) timed out or failed. The only retryable category.
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUpstreamUnavailable: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
