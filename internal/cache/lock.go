package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"digidub/internal/textutil"
)

const lockRetryDelay = 250 * time.Millisecond

// Lock holds the per-media detection lock.
type Lock struct {
	f *flock.Flock
}

// Lock acquires the detection lock of key, waiting until ctx is done.
// Another digidub process analysing the same file blocks here until it has
// stored its results.
func (s *Store) Lock(ctx context.Context, key Key) (*Lock, error) {
	f, err := s.lockFile(key)
	if err != nil {
		return nil, err
	}
	ok, err := f.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
	}
	return &Lock{f: f}, nil
}

// TryLock acquires the lock of key without waiting. The boolean is false
// when another process holds it.
func (s *Store) TryLock(key Key) (*Lock, bool, error) {
	f, err := s.lockFile(key)
	if err != nil {
		return nil, false, err
	}
	ok, err := f.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &Lock{f: f}, true, nil
}

// Unlock releases the lock. It is safe on a nil Lock.
func (l *Lock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Unlock()
}

func (s *Store) lockFile(key Key) (*flock.Flock, error) {
	dir := filepath.Join(s.dir, "locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	return flock.New(filepath.Join(dir, textutil.SafeFileName(key.String())+".lock")), nil
}
