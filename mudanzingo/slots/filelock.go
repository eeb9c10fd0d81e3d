package slots

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// FileLock defines the interface for file locking operations
type FileLock interface {
	// TryLockContext attempts to acquire an exclusive lock, retrying until
	// ctx is done
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)

	// Unlock releases the lock
	Unlock() error
}

// FileLockFactory creates FileLock instances
type FileLockFactory interface {
	// New creates a new FileLock for the given path
	New(path string) FileLock
}

// FlockFactory creates cross-process locks backed by github.com/gofrs/flock.
type FlockFactory struct{}

// New implements FileLockFactory.New
func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}

// LocalLockFactory creates locks that only exclude goroutines of the current
// process. It backs filesystems that live inside the process, where there is
// no lock file to share.
type LocalLockFactory struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

// NewLocalLockFactory creates a LocalLockFactory.
func NewLocalLockFactory() *LocalLockFactory {
	return &LocalLockFactory{locks: make(map[string]*localLock)}
}

// New implements FileLockFactory.New
func (f *LocalLockFactory) New(path string) FileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[path]
	if !ok {
		l = &localLock{}
		f.locks[path] = l
	}
	return l
}

type localLock struct {
	mu sync.Mutex
}

func (l *localLock) TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error) {
	for {
		if l.mu.TryLock() {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func (l *localLock) Unlock() error {
	l.mu.Unlock()
	return nil
}

const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// acquireLock attempts to acquire an exclusive file lock with retry logic
func acquireLock(ctx context.Context, lock FileLock) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := lock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}
