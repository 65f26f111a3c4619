package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/kbukum/authkit/store"
)

const defaultJanitorInterval = time.Minute

var defaultBucket = []byte("authkit")

// Store is a bbolt-backed implementation of store.KV.
type Store struct {
	db     *bbolt.DB
	bucket []byte

	stopJanitor chan struct{}
	stopOnce    sync.Once

	// Now is the clock used for expiry checks. Overridable in tests.
	Now func() time.Time
}

var _ store.KV = (*Store)(nil)

// Option configures the store.
type Option func(*Store)

// WithBucket overrides the bucket name (default: "authkit").
func WithBucket(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.bucket = []byte(name)
		}
	}
}

// Open opens (creating if needed) a bbolt database at path and starts the
// expiry janitor. Call Close when done.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	s := &Store{
		db:          db,
		bucket:      defaultBucket,
		stopJanitor: make(chan struct{}),
		Now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: create bucket: %w", err)
	}
	go s.janitor(defaultJanitorInterval)
	return s, nil
}

// Close stops the janitor and closes the database.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopJanitor) })
	return s.db.Close()
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.reap()
		case <-s.stopJanitor:
			return
		}
	}
}

func (s *Store) reap() error {
	now := s.Now()
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if expired(v, now) {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Put stores a value under key with the given TTL.
func (s *Store) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("bolt: key is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("bolt: ttl must be positive")
	}
	env := encode(s.Now().Add(ttl), value)
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), env)
	})
}

// Get returns the value for key if present and unexpired.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := s.Now()
	var value []byte
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(key))
		if raw == nil || expired(raw, now) {
			return nil
		}
		value = append([]byte(nil), raw[8:]...)
		ok = true
		return nil
	})
	return value, ok, err
}

// Take atomically returns and deletes the value for key.
func (s *Store) Take(_ context.Context, key string) ([]byte, bool, error) {
	now := s.Now()
	var value []byte
	var ok bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if err := b.Delete([]byte(key)); err != nil {
			return err
		}
		if expired(raw, now) {
			return nil
		}
		value = append([]byte(nil), raw[8:]...)
		ok = true
		return nil
	})
	return value, ok, err
}

// DeleteIfPresent removes key, reporting whether it was present and live.
func (s *Store) DeleteIfPresent(_ context.Context, key string) (bool, error) {
	now := s.Now()
	var present bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		present = !expired(raw, now)
		return b.Delete([]byte(key))
	})
	return present, err
}

// Claim marks key as used for ttl. First caller wins.
func (s *Store) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("bolt: key is required")
	}
	if ttl <= 0 {
		return false, fmt.Errorf("bolt: ttl must be positive")
	}
	now := s.Now()
	var won bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		raw := b.Get([]byte(key))
		if raw != nil && !expired(raw, now) {
			return nil
		}
		won = true
		return b.Put([]byte(key), encode(now.Add(ttl), nil))
	})
	return won, err
}

func encode(expiresAt time.Time, value []byte) []byte {
	env := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(env[:8], uint64(expiresAt.UnixNano()))
	copy(env[8:], value)
	return env
}

func expired(raw []byte, now time.Time) bool {
	if len(raw) < 8 {
		return true
	}
	expiresAt := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:8])))
	return !now.Before(expiresAt)
}
