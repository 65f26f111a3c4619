package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/authctx"
	"github.com/kbukum/authkit/authz"
	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func stubResolver(want string, auth *identity.Auth, err error) identity.Resolver {
	return identity.ResolverFunc(func(_ context.Context, presented string) (*identity.Auth, error) {
		if presented != want {
			return nil, errors.InvalidCredentials()
		}
		if err != nil {
			return nil, err
		}
		return auth, nil
	})
}

func okHandler(c *gin.Context) {
	auth, ok := authctx.Get(c.Request.Context())
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no auth in context"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"principal": auth.Principal.ID})
}

func perform(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/it", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errors.Response {
	t.Helper()
	var resp errors.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestRequireBearer_Success(t *testing.T) {
	auth := &identity.Auth{Principal: &identity.Principal{ID: "u-1"}, Method: identity.MethodBearer}
	r := gin.New()
	r.GET("/it", RequireBearer(stubResolver("tok-1", auth, nil)), okHandler)

	w := perform(r, map[string]string{"Authorization": "Bearer tok-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
}

func TestRequireBearer_MissingHeader(t *testing.T) {
	r := gin.New()
	r.GET("/it", RequireBearer(stubResolver("tok-1", nil, nil)), okHandler)

	w := perform(r, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != errors.ErrCodeMalformedToken {
		t.Errorf("expected MALFORMED_TOKEN, got %s", resp.Code)
	}
}

func TestRequireBearer_NotBearerScheme(t *testing.T) {
	r := gin.New()
	r.GET("/it", RequireBearer(stubResolver("tok-1", nil, nil)), okHandler)

	w := perform(r, map[string]string{"Authorization": "Basic dXNlcjpwdw=="})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireBearer_ResolverErrorCategoryPropagates(t *testing.T) {
	r := gin.New()
	r.GET("/it", RequireBearer(stubResolver("tok-1", nil, errors.Expired())), okHandler)

	w := perform(r, map[string]string{"Authorization": "Bearer tok-1"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != errors.ErrCodeExpired {
		t.Errorf("expected EXPIRED, got %s", resp.Code)
	}
}

func TestRequireAPIKey_Success(t *testing.T) {
	auth := &identity.Auth{Principal: &identity.Principal{ID: "svc-1"}, Method: identity.MethodAPIKey}
	r := gin.New()
	r.GET("/it", RequireAPIKey(stubResolver("key-1", auth, nil), ""), okHandler)

	w := perform(r, map[string]string{DefaultAPIKeyHeader: "key-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
}

func TestRequireAPIKey_Missing(t *testing.T) {
	r := gin.New()
	r.GET("/it", RequireAPIKey(stubResolver("key-1", nil, nil), ""), okHandler)

	w := perform(r, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != errors.ErrCodeInvalidCredentials {
		t.Errorf("expected INVALID_CREDENTIALS, got %s", resp.Code)
	}
}

func TestRequireAny_PrefersBearer(t *testing.T) {
	bearerAuth := &identity.Auth{Principal: &identity.Principal{ID: "u-1"}, Method: identity.MethodBearer}
	keyAuth := &identity.Auth{Principal: &identity.Principal{ID: "svc-1"}, Method: identity.MethodAPIKey}
	r := gin.New()
	r.GET("/it", RequireAny(stubResolver("tok-1", bearerAuth, nil), stubResolver("key-1", keyAuth, nil), ""), okHandler)

	w := perform(r, map[string]string{
		"Authorization":     "Bearer tok-1",
		DefaultAPIKeyHeader: "key-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["principal"] != "u-1" {
		t.Errorf("bearer must win, got %q", body["principal"])
	}
}

func TestRequireAny_FallsBackToAPIKey(t *testing.T) {
	keyAuth := &identity.Auth{Principal: &identity.Principal{ID: "svc-1"}, Method: identity.MethodAPIKey}
	r := gin.New()
	r.GET("/it", RequireAny(stubResolver("tok-1", nil, nil), stubResolver("key-1", keyAuth, nil), ""), okHandler)

	w := perform(r, map[string]string{DefaultAPIKeyHeader: "key-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
}

func TestRequireAny_NoCredentials(t *testing.T) {
	r := gin.New()
	r.GET("/it", RequireAny(stubResolver("t", nil, nil), stubResolver("k", nil, nil), ""), okHandler)

	if w := perform(r, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	guard := authz.NewGuard(map[string][]string{"editor": {"article:*"}})
	auth := &identity.Auth{
		Principal: &identity.Principal{ID: "u-1"},
		Scopes:    []string{"editor"},
		Method:    identity.MethodBearer,
	}
	r := gin.New()
	r.GET("/it",
		RequireBearer(stubResolver("tok-1", auth, nil)),
		RequirePermission(guard, "article:write"),
		okHandler,
	)

	if w := perform(r, map[string]string{"Authorization": "Bearer tok-1"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	denied := gin.New()
	denied.GET("/it",
		RequireBearer(stubResolver("tok-1", auth, nil)),
		RequirePermission(guard, "media:write"),
		okHandler,
	)
	w := perform(denied, map[string]string{"Authorization": "Bearer tok-1"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != errors.ErrCodeInsufficientScope {
		t.Errorf("expected INSUFFICIENT_SCOPE, got %s", resp.Code)
	}
}

func TestRequirePermission_NoAuthInContext(t *testing.T) {
	guard := authz.NewGuard(nil)
	r := gin.New()
	r.GET("/it", RequirePermission(guard, "article:read"), okHandler)

	if w := perform(r, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireAnyRole(t *testing.T) {
	guard := authz.NewGuard(nil)
	auth := &identity.Auth{
		Principal: &identity.Principal{ID: "u-1"},
		Scopes:    []string{"viewer"},
		Method:    identity.MethodBearer,
	}
	r := gin.New()
	r.GET("/it",
		RequireBearer(stubResolver("tok-1", auth, nil)),
		RequireAnyRole(guard, "editor", "viewer"),
		okHandler,
	)
	if w := perform(r, map[string]string{"Authorization": "Bearer tok-1"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
}
