// Package store defines the small key-value contract the core keeps its
// only mutable state behind: refresh-token deny-lists and transient
// authorization flow records. Entries are opaque bytes keyed by opaque
// strings with a bounded TTL, so any key-value technology can back them.
//
// Two implementations ship with the module: store/memory for tests and
// single-instance deployments, and store/bolt for embedded persistence.
package store
