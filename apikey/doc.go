// Package apikey validates opaque static API keys against an externally
// managed record set. Lookup compares SHA-256 digests over every record on
// every call, so response timing does not depend on whether or where a key
// matched. Records are snapshotted with a short TTL to keep validation off
// the store's hot path.
package apikey
