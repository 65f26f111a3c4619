// Package logger wraps zerolog with the structured fields the auth core
// emits. Components receive a *Logger by injection so tests can capture
// output; security events (token reuse, family revocation) are logged at
// warn level with stable field names for alerting.
package logger
