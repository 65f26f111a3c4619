// Package identity defines the data model shared by every authentication
// scheme: the Principal, its stored Credential, externally-issued
// identities, and the collaborator contracts the core reads them through.
//
// The core never creates or mutates principals — user management is an
// external collaborator reached through CredentialStore. Everything here is
// read-only from the core's perspective.
package identity
