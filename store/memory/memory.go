package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/authkit/store"
)

const defaultJanitorInterval = time.Minute

// Store is an in-memory implementation of store.KV.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry

	stopJanitor chan struct{}
	stopOnce    sync.Once

	// Now is the clock used for expiry checks. Overridable in tests.
	Now func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

var _ store.KV = (*Store)(nil)

// New creates an in-memory store with the default janitor interval.
func New() *Store {
	return NewWithInterval(defaultJanitorInterval)
}

// NewWithInterval creates an in-memory store whose janitor runs at the given
// interval. Call Stop to terminate the janitor goroutine.
func NewWithInterval(interval time.Duration) *Store {
	if interval <= 0 {
		interval = defaultJanitorInterval
	}
	s := &Store{
		entries:     make(map[string]entry),
		stopJanitor: make(chan struct{}),
		Now:         time.Now,
	}
	go s.janitor(interval)
	return s
}

// Stop terminates the background janitor goroutine.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopJanitor) })
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.reap()
		case <-s.stopJanitor:
			return
		}
	}
}

func (s *Store) reap() {
	now := s.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Put stores a value under key with the given TTL.
func (s *Store) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("memory: key is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("memory: ttl must be positive")
	}
	v := make([]byte, len(value))
	copy(v, value)

	s.mu.Lock()
	s.entries[key] = entry{value: v, expiresAt: s.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Get returns the value for key if present and unexpired.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := s.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !now.Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	v := make([]byte, len(e.value))
	copy(v, e.value)
	return v, true, nil
}

// Take atomically returns and deletes the value for key.
func (s *Store) Take(_ context.Context, key string) ([]byte, bool, error) {
	now := s.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	delete(s.entries, key)
	if !now.Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// DeleteIfPresent removes key, reporting whether it was present and live.
func (s *Store) DeleteIfPresent(_ context.Context, key string) (bool, error) {
	now := s.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	delete(s.entries, key)
	return now.Before(e.expiresAt), nil
}

// Claim marks key as used for ttl. First caller wins.
func (s *Store) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("memory: key is required")
	}
	if ttl <= 0 {
		return false, fmt.Errorf("memory: ttl must be positive")
	}
	now := s.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = entry{expiresAt: now.Add(ttl)}
	return true, nil
}
