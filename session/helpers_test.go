package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/authkit/identity"
	"github.com/kbukum/authkit/password"
	"github.com/kbukum/authkit/store/memory"
	"github.com/kbukum/authkit/token"
)

// fakeStore is an in-memory identity.CredentialStore for tests.
type fakeStore struct {
	principals  map[string]*identity.Principal
	credentials map[string]*identity.Credential
	failing     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		principals:  make(map[string]*identity.Principal),
		credentials: make(map[string]*identity.Credential),
	}
}

func (s *fakeStore) add(p *identity.Principal, passwordHash string) {
	s.principals[p.ID] = p
	s.credentials[p.ID] = &identity.Credential{PrincipalID: p.ID, PasswordHash: passwordHash}
}

func (s *fakeStore) FindByIdentifier(_ context.Context, identifier string) (*identity.Principal, error) {
	if s.failing {
		return nil, fmt.Errorf("store down")
	}
	for _, p := range s.principals {
		if p.Identifier == identifier {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*identity.Principal, error) {
	if s.failing {
		return nil, fmt.Errorf("store down")
	}
	return s.principals[id], nil
}

func (s *fakeStore) FindCredential(_ context.Context, principalID string) (*identity.Credential, error) {
	if s.failing {
		return nil, fmt.Errorf("store down")
	}
	return s.credentials[principalID], nil
}

// stalledStore blocks every lookup until the caller's context expires,
// standing in for a hung credential backend.
type stalledStore struct{}

func (stalledStore) FindByIdentifier(ctx context.Context, _ string) (*identity.Principal, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledStore) FindByID(ctx context.Context, _ string) (*identity.Principal, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledStore) FindCredential(ctx context.Context, _ string) (*identity.Credential, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// countingHasher is a trivial hasher that counts Verify calls, so tests can
// assert the unknown-identifier path does the same hashing work as a real
// mismatch without measuring wall-clock time.
type countingHasher struct {
	verifies atomic.Int64
}

func (h *countingHasher) Hash(p string) (string, error) { return "h:" + p, nil }

func (h *countingHasher) Verify(p, hash string) error {
	h.verifies.Add(1)
	if hash == "h:"+p {
		return nil
	}
	return password.ErrMismatch
}

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(&token.Config{
		Secret: "test-secret-0123456789abcdef",
		Issuer: "authkit-test",
	})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec
}

func newTestDeny(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewWithInterval(time.Hour)
	t.Cleanup(s.Stop)
	return s
}

// newTestStack wires a store with one active principal ("alice") through
// issuer, verifier, and refresher.
func newTestStack(t *testing.T) (*fakeStore, *countingHasher, *token.Codec, *Issuer, *Verifier, *Refresher) {
	t.Helper()
	fs := newFakeStore()
	hasher := &countingHasher{}
	hash, _ := hasher.Hash("s3cret")
	fs.add(&identity.Principal{
		ID:         "u-1",
		Identifier: "alice@example.com",
		Roles:      []string{"editor"},
	}, hash)

	codec := newTestCodec(t)
	deny := newTestDeny(t)

	issuer, err := NewIssuer(fs, hasher, codec)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	verifier, err := NewVerifier(codec, fs, deny)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	refresher, err := NewRefresher(codec, verifier, deny)
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	return fs, hasher, codec, issuer, verifier, refresher
}
