// Package flow implements the server-side authorization-code flow against
// external providers, with PKCE and single-use state nonces. Begin produces
// the provider redirect URL and stashes the verifier; Complete consumes the
// state exactly once, exchanges the code, maps the external identity to a
// local principal, and mints a first-party token pair.
package flow
