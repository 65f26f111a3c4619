// Package bolt provides a store.KV backed by an embedded bbolt database,
// for deployments that must keep deny-list and flow state across restarts.
// Each entry is stored as an 8-byte expiry prefix followed by the value;
// transactions give the same one-winner semantics as the in-memory store.
package bolt
