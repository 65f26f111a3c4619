// Package errors provides the unified error taxonomy for the authkit core.
// Every public operation returns a typed *AppError rather than an
// unstructured error, so callers can branch on machine-readable codes
// while internal detail stays out of external responses.
package errors
