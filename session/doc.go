// Package session ties credentials, tokens, and the deny-list together into
// the three operations callers actually use: Login (password to token pair),
// Verify (bearer token to authenticated principal), and Refresh (rotate a
// refresh token, detecting replay of already-used ones).
//
// Login failures are uniform: an unknown identifier and a wrong password
// return the same error after the same amount of hashing work, so response
// timing does not reveal which identifiers exist. Refresh is
// rotation-on-use: every refresh token works exactly once, and presenting a
// consumed one revokes its whole family.
package session
