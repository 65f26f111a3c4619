// Package password provides one-way salted password hashing and
// constant-time verification for stored credentials.
//
// It defines a Hasher interface with two implementations:
//   - BcryptHasher: industry-standard bcrypt hashing
//   - Argon2Hasher: modern argon2id hashing (recommended for new projects)
//
// Verification never short-circuits on an early byte mismatch and fails
// closed on unrecognized hash encodings: a malformed stored hash still pays
// the full hashing cost before the error returns, so a caller cannot tell a
// corrupt record from a wrong password by timing.
package password
