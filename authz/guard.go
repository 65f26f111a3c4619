package authz

import (
	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/identity"
)

// DefaultSuperuserRole bypasses every check unless reconfigured.
const DefaultSuperuserRole = "admin"

// Decision is the outcome of an authorization check.
type Decision struct {
	// Allowed reports whether the operation is permitted.
	Allowed bool

	// MatchedBy is the role or scope that granted access, or the superuser
	// role when the bypass applied. Empty when denied.
	MatchedBy string
}

// Guard evaluates authorization decisions against a static table mapping
// roles to permission patterns.
type Guard struct {
	permissions map[string][]string
	superuser   string
}

// GuardOption configures the guard.
type GuardOption func(*Guard)

// WithSuperuserRole overrides the role that bypasses all checks
// (default: "admin"). An empty role disables the bypass.
func WithSuperuserRole(role string) GuardOption {
	return func(g *Guard) { g.superuser = role }
}

// NewGuard creates a guard from a role-to-permission-patterns table.
//
//	guard := authz.NewGuard(map[string][]string{
//	    "editor": {"article:*", "media:read"},
//	    "viewer": {"*:read"},
//	})
func NewGuard(permissions map[string][]string, opts ...GuardOption) *Guard {
	g := &Guard{permissions: permissions, superuser: DefaultSuperuserRole}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide evaluates whether the authenticated principal may perform the
// required permission. Pure: same inputs, same decision.
func (g *Guard) Decide(auth *identity.Auth, required string) Decision {
	if auth == nil || auth.Principal == nil {
		return Decision{}
	}
	granted := grantedScopes(auth)
	if g.superuser != "" {
		for _, s := range granted {
			if s == g.superuser {
				return Decision{Allowed: true, MatchedBy: g.superuser}
			}
		}
	}
	for _, s := range granted {
		if MatchAny(g.permissions[s], required) {
			return Decision{Allowed: true, MatchedBy: s}
		}
		// A scope may itself be a permission pattern (API key scopes).
		if MatchPattern(s, required) {
			return Decision{Allowed: true, MatchedBy: s}
		}
	}
	return Decision{}
}

// RequirePermission returns nil when the permission is granted and
// INSUFFICIENT_SCOPE otherwise.
func (g *Guard) RequirePermission(auth *identity.Auth, required string) error {
	if d := g.Decide(auth, required); !d.Allowed {
		return errors.InsufficientScope().WithDetail("required_permission", required)
	}
	return nil
}

// RequireAnyRole returns nil when the principal holds at least one of the
// given roles (or the superuser role) and INSUFFICIENT_SCOPE otherwise.
func (g *Guard) RequireAnyRole(auth *identity.Auth, roles ...string) error {
	if auth == nil || auth.Principal == nil {
		return errors.InsufficientScope()
	}
	granted := grantedScopes(auth)
	for _, s := range granted {
		if g.superuser != "" && s == g.superuser {
			return nil
		}
		for _, r := range roles {
			if s == r {
				return nil
			}
		}
	}
	return errors.InsufficientScope().WithDetail("required_roles", roles)
}

// grantedScopes returns the scope list the decision is made against: the
// scopes frozen into the credential at issuance, falling back to the
// principal's live roles when the credential carried none.
func grantedScopes(auth *identity.Auth) []string {
	if len(auth.Scopes) > 0 {
		return auth.Scopes
	}
	return auth.Principal.Roles
}
