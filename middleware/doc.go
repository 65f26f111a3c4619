// Package middleware provides Gin handlers that bridge HTTP requests into
// the credential core: bearer and API key authentication, and authorization
// guards over the resolved principal. The resolution outcome is stored on
// the request context via authctx, so downstream handlers stay framework-
// agnostic.
package middleware
