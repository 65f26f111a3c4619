package authz

import (
	"testing"

	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/identity"
)

func testGuard() *Guard {
	return NewGuard(map[string][]string{
		"editor": {"article:*", "media:read"},
		"viewer": {"*:read"},
	})
}

func authWithScopes(scopes ...string) *identity.Auth {
	return &identity.Auth{
		Principal: &identity.Principal{ID: "u-1", Identifier: "alice@example.com"},
		Scopes:    scopes,
		Method:    identity.MethodBearer,
	}
}

func TestGuard_Decide_RoleGrants(t *testing.T) {
	g := testGuard()
	alice := authWithScopes("editor")

	if d := g.Decide(alice, "article:write"); !d.Allowed || d.MatchedBy != "editor" {
		t.Errorf("editor must write articles, got %+v", d)
	}
	if d := g.Decide(alice, "media:read"); !d.Allowed {
		t.Errorf("editor must read media, got %+v", d)
	}
	if d := g.Decide(alice, "media:write"); d.Allowed {
		t.Errorf("editor must not write media, got %+v", d)
	}
}

func TestGuard_Decide_SuperuserBypass(t *testing.T) {
	g := testGuard()
	root := authWithScopes("admin")

	d := g.Decide(root, "anything:at-all")
	if !d.Allowed || d.MatchedBy != "admin" {
		t.Errorf("superuser must bypass, got %+v", d)
	}
}

func TestGuard_Decide_SuperuserDisabled(t *testing.T) {
	g := NewGuard(map[string][]string{}, WithSuperuserRole(""))
	root := authWithScopes("admin")

	if d := g.Decide(root, "article:read"); d.Allowed {
		t.Errorf("disabled bypass must not grant, got %+v", d)
	}
}

func TestGuard_Decide_ScopeAsPermissionPattern(t *testing.T) {
	g := testGuard()
	svc := authWithScopes("reports:read")

	if d := g.Decide(svc, "reports:read"); !d.Allowed {
		t.Errorf("literal scope must grant itself, got %+v", d)
	}
	if d := g.Decide(svc, "reports:write"); d.Allowed {
		t.Errorf("literal scope must not grant beyond itself, got %+v", d)
	}
}

func TestGuard_Decide_FallsBackToLiveRoles(t *testing.T) {
	g := testGuard()
	auth := &identity.Auth{
		Principal: &identity.Principal{ID: "u-1", Roles: []string{"viewer"}},
		Method:    identity.MethodExternal,
	}
	if d := g.Decide(auth, "article:read"); !d.Allowed {
		t.Errorf("principal roles must apply when the credential carries no scopes, got %+v", d)
	}
}

func TestGuard_Decide_NilAuth(t *testing.T) {
	g := testGuard()
	if d := g.Decide(nil, "article:read"); d.Allowed {
		t.Error("nil auth must be denied")
	}
}

func TestGuard_RequirePermission_Denied(t *testing.T) {
	g := testGuard()
	err := g.RequirePermission(authWithScopes("viewer"), "article:write")
	if !errors.Is(err, errors.ErrCodeInsufficientScope) {
		t.Fatalf("expected INSUFFICIENT_SCOPE, got %v", err)
	}
}

func TestGuard_RequireAnyRole(t *testing.T) {
	g := testGuard()

	if err := g.RequireAnyRole(authWithScopes("editor"), "editor", "viewer"); err != nil {
		t.Errorf("editor must pass: %v", err)
	}
	if err := g.RequireAnyRole(authWithScopes("admin"), "editor"); err != nil {
		t.Errorf("superuser must pass any role check: %v", err)
	}
	err := g.RequireAnyRole(authWithScopes("viewer"), "editor")
	if !errors.Is(err, errors.ErrCodeInsufficientScope) {
		t.Fatalf("expected INSUFFICIENT_SCOPE, got %v", err)
	}
	if err := g.RequireAnyRole(nil, "editor"); !errors.Is(err, errors.ErrCodeInsufficientScope) {
		t.Fatalf("nil auth must be denied, got %v", err)
	}
}
