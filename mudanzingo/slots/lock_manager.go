package slots

import (
	"sync"
)

// OperationType tells a LockManager whether an operation reads or writes.
type OperationType int

const (
	// ReadOperation may run alongside other reads of the same slot.
	ReadOperation OperationType = iota

	// WriteOperation excludes every other operation on the same slot.
	WriteOperation
)

// LockManager serializes in-process access to slots. Each slot key gets its
// own RWMutex, so writers to one kind never wait on another kind.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewLockManager creates an empty lock manager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*sync.RWMutex)}
}

func (lm *LockManager) lockFor(key string) *sync.RWMutex {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	l, ok := lm.locks[key]
	if !ok {
		l = &sync.RWMutex{}
		lm.locks[key] = l
	}
	return l
}

// Execute runs fn while holding the lock of key in the mode given by opType.
//
// Example:
//
//	err := lm.Execute("quotes-items", WriteOperation, func() error {
//	    return writeSlot()
//	})
func (lm *LockManager) Execute(key string, opType OperationType, fn func() error) error {
	l := lm.lockFor(key)
	switch opType {
	case ReadOperation:
		l.RLock()
		defer l.RUnlock()
	case WriteOperation:
		l.Lock()
		defer l.Unlock()
	}
	return fn()
}
