package authctx

import (
	"context"
	"testing"

	"github.com/kbukum/authkit/identity"
)

func TestSet_Get_Success(t *testing.T) {
	auth := &identity.Auth{
		Principal: &identity.Principal{ID: "p-1", Roles: []string{"editor"}},
		Scopes:    []string{"editor"},
		Method:    identity.MethodBearer,
	}
	ctx := Set(context.Background(), auth)

	got, ok := Get(ctx)
	if !ok {
		t.Fatal("expected auth in context")
	}
	if got.Principal.ID != "p-1" {
		t.Errorf("expected principal p-1, got %s", got.Principal.ID)
	}
	if got.Method != identity.MethodBearer {
		t.Errorf("expected method bearer, got %s", got.Method)
	}
}

func TestGet_Missing(t *testing.T) {
	if _, ok := Get(context.Background()); ok {
		t.Error("expected no auth in empty context")
	}
}

func TestGetOrError_Missing(t *testing.T) {
	if _, err := GetOrError(context.Background()); err != ErrNoAuth {
		t.Errorf("expected ErrNoAuth, got %v", err)
	}
}

func TestMustGet_PanicsWhenMissing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing auth")
		}
	}()
	MustGet(context.Background())
}

func TestPrincipal_Convenience(t *testing.T) {
	ctx := Set(context.Background(), &identity.Auth{
		Principal: &identity.Principal{ID: "p-2"},
	})
	p, ok := Principal(ctx)
	if !ok || p.ID != "p-2" {
		t.Errorf("expected principal p-2, got %v ok=%v", p, ok)
	}
}
