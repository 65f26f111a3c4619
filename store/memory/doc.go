// Package memory provides an in-memory store.KV suitable for tests and
// single-instance deployments. A background janitor reaps expired entries;
// reads never return them regardless of janitor timing.
package memory
