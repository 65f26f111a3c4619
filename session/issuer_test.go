package session

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/identity"
	"github.com/kbukum/authkit/token"
)

func TestIssuer_Login_Success(t *testing.T) {
	_, _, codec, issuer, _, _ := newTestStack(t)

	pair, err := issuer.Login(context.Background(), "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("pair must carry both tokens")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("expected Bearer, got %q", pair.TokenType)
	}

	claims, err := codec.Decode(pair.AccessToken)
	if err != nil {
		t.Fatalf("decode access: %v", err)
	}
	if claims.Subject != "u-1" {
		t.Errorf("expected subject u-1, got %q", claims.Subject)
	}
	if claims.Kind != token.KindAccess {
		t.Errorf("expected access kind, got %q", claims.Kind)
	}
	if len(claims.Scopes) != 1 || claims.Scopes[0] != "editor" {
		t.Errorf("expected roles as scopes, got %v", claims.Scopes)
	}

	refreshClaims, err := codec.Decode(pair.RefreshToken)
	if err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	if refreshClaims.Kind != token.KindRefresh {
		t.Errorf("expected refresh kind, got %q", refreshClaims.Kind)
	}
	if refreshClaims.FamilyID == "" {
		t.Error("refresh token must start a family")
	}
}

func TestIssuer_Login_UnknownIdentifier(t *testing.T) {
	_, hasher, _, issuer, _, _ := newTestStack(t)

	_, err := issuer.Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, errors.ErrCodeInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
	if got := hasher.verifies.Load(); got != 1 {
		t.Errorf("unknown identifier must still pay one verification, got %d", got)
	}
}

func TestIssuer_Login_WrongPassword(t *testing.T) {
	_, hasher, _, issuer, _, _ := newTestStack(t)

	_, err := issuer.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, errors.ErrCodeInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
	if got := hasher.verifies.Load(); got != 1 {
		t.Errorf("expected one verification, got %d", got)
	}
}

func TestIssuer_Login_FailureMessagesIdentical(t *testing.T) {
	_, _, _, issuer, _, _ := newTestStack(t)
	ctx := context.Background()

	_, errUnknown := issuer.Login(ctx, "nobody@example.com", "whatever")
	_, errWrong := issuer.Login(ctx, "alice@example.com", "wrong")
	if errUnknown == nil || errWrong == nil {
		t.Fatal("both logins must fail")
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("failure messages must be indistinguishable: %q vs %q", errUnknown, errWrong)
	}
}

func TestIssuer_Login_DisabledAccount(t *testing.T) {
	fs, hasher, _, issuer, _, _ := newTestStack(t)
	hash, _ := hasher.Hash("pw")
	fs.add(&identity.Principal{
		ID:         "u-2",
		Identifier: "bob@example.com",
		Disabled:   true,
	}, hash)

	_, err := issuer.Login(context.Background(), "bob@example.com", "pw")
	if !errors.Is(err, errors.ErrCodeAccountDisabled) {
		t.Fatalf("expected ACCOUNT_DISABLED, got %v", err)
	}
}

func TestIssuer_Login_DisabledAccountWrongPassword(t *testing.T) {
	fs, hasher, _, issuer, _, _ := newTestStack(t)
	hash, _ := hasher.Hash("pw")
	fs.add(&identity.Principal{
		ID:         "u-2",
		Identifier: "bob@example.com",
		Disabled:   true,
	}, hash)

	// Disabled state must not leak without a correct password.
	_, err := issuer.Login(context.Background(), "bob@example.com", "wrong")
	if !errors.Is(err, errors.ErrCodeInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

func TestIssuer_Login_HungStoreTimesOut(t *testing.T) {
	issuer, err := NewIssuer(stalledStore{}, &countingHasher{}, newTestCodec(t),
		WithIssuerLookupTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	_, err = issuer.Login(context.Background(), "alice@example.com", "s3cret")
	if !errors.Is(err, errors.ErrCodeUpstreamUnavailable) {
		t.Fatalf("expected UPSTREAM_UNAVAILABLE, got %v", err)
	}
	var ae *errors.AppError
	if !stderrors.As(err, &ae) || !ae.Retryable {
		t.Error("lookup timeouts must be retryable")
	}
}

func TestIssuer_Login_StoreFailureRetryable(t *testing.T) {
	fs, _, _, issuer, _, _ := newTestStack(t)
	fs.failing = true

	_, err := issuer.Login(context.Background(), "alice@example.com", "s3cret")
	if !errors.Is(err, errors.ErrCodeUpstreamUnavailable) {
		t.Fatalf("expected UPSTREAM_UNAVAILABLE, got %v", err)
	}
	var ae *errors.AppError
	if !stderrors.As(err, &ae) || !ae.Retryable {
		t.Error("store failures must be retryable")
	}
}
