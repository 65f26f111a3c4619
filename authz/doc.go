// Package authz decides whether an authenticated principal may perform an
// operation. Decisions are pure functions over the granted scope list and a
// static role-to-permission table, so they are trivially cacheable and
// testable. Permissions use the "resource:action" format with wildcard
// support on either part.
package authz
