// Package token signs and verifies the compact, self-contained tokens the
// core issues: short-lived access tokens and long-lived refresh tokens,
// distinguished by a kind claim that is always checked before anything else.
//
// The Codec supports symmetric (HS*) and asymmetric (RS*/ES*) signing, and
// can verify tokens minted by a different authority through a remote JWKS
// key set. Expiry and not-before comparisons apply a fixed clock-skew
// leeway symmetrically.
package token
