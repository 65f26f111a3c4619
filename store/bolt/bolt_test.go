package bolt

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "authkit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGet_Success(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(v) != "v" {
		t.Errorf("expected v, got %q", v)
	}
}

func TestStore_Get_Expired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	s.Now = func() time.Time { return now }
	_ = s.Put(ctx, "k", []byte("v"), time.Minute)

	s.Now = func() time.Time { return now.Add(time.Minute) }
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expired entry must not be returned")
	}
}

func TestStore_Take_SingleConsumption(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.Put(ctx, "k", []byte("v"), time.Minute)

	v, ok, _ := s.Take(ctx, "k")
	if !ok || string(v) != "v" {
		t.Fatalf("first take: ok=%v v=%q", ok, v)
	}
	if _, ok, _ := s.Take(ctx, "k"); ok {
		t.Error("second take must miss")
	}
}

func TestStore_Claim_FirstWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Claim(ctx, "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Claim(ctx, "k", time.Minute); ok {
		t.Error("second claim must lose")
	}
}

func TestStore_Claim_ConcurrentOneWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Claim(ctx, "k", time.Minute); ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if won != 1 {
		t.Errorf("expected exactly 1 winner, got %d", won)
	}
}

func TestStore_DeleteIfPresent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if present, _ := s.DeleteIfPresent(ctx, "k"); present {
		t.Error("absent key must report not present")
	}
	_ = s.Put(ctx, "k", []byte("v"), time.Minute)
	if present, _ := s.DeleteIfPresent(ctx, "k"); !present {
		t.Error("live key must report present")
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("deleted key must be gone")
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authkit.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.Put(ctx, "k", []byte("v"), time.Hour)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	v, ok, _ := s2.Get(ctx, "k")
	if !ok || string(v) != "v" {
		t.Errorf("value must survive reopen: ok=%v v=%q", ok, v)
	}
}

func TestStore_Reap_RemovesExpiredOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	s.Now = func() time.Time { return now }
	_ = s.Put(ctx, "old", []byte("1"), time.Minute)
	_ = s.Put(ctx, "fresh", []byte("2"), time.Hour)

	s.Now = func() time.Time { return now.Add(2 * time.Minute) }
	if err := s.reap(); err != nil {
		t.Fatalf("reap: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "old"); ok {
		t.Error("expired entry must be reaped")
	}
	if _, ok, _ := s.Get(ctx, "fresh"); !ok {
		t.Error("live entry must survive reap")
	}
}
