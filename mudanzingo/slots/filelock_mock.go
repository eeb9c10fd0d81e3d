package slots

import (
	"context"
	"sync"
	"time"
)

// MockFileLock is an in-memory slot lock that counts how it was used.
type MockFileLock struct {
	mu   sync.Mutex
	held bool
	err  error

	LockAttempts   int
	UnlockAttempts int
}

// TryLockContext makes a single attempt; retries are left to the caller.
func (m *MockFileLock) TryLockContext(context.Context, time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LockAttempts++
	switch {
	case m.err != nil:
		return false, m.err
	case m.held:
		return false, nil
	}
	m.held = true
	return true, nil
}

func (m *MockFileLock) Unlock() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnlockAttempts++
	m.held = false
	return nil
}

// Held reports whether the lock is taken.
func (m *MockFileLock) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// HoldElsewhere marks the lock as taken by another writer.
func (m *MockFileLock) HoldElsewhere() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = true
}

// MockFileLockFactory hands out one MockFileLock per lock path. LockErr, when
// set, makes every new lock fail.
type MockFileLockFactory struct {
	mu      sync.Mutex
	locks   map[string]*MockFileLock
	LockErr error
}

func NewMockFileLockFactory() *MockFileLockFactory {
	return &MockFileLockFactory{locks: make(map[string]*MockFileLock)}
}

func (f *MockFileLockFactory) New(path string) FileLock { return f.Lock(path) }

// Lock returns the lock of path.
func (f *MockFileLockFactory) Lock(path string) *MockFileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[path]
	if !ok {
		l = &MockFileLock{err: f.LockErr}
		f.locks[path] = l
	}
	return l
}
