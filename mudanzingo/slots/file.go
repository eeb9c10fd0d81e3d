package slots

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
)

// FileSlots stores each slot as a JSON file named after its key. Writes go to
// a temporary file that is renamed over the slot, so readers never see a
// partial payload. Modify holds a lock file next to the slot for the whole
// read-modify-write cycle.
type FileSlots struct {
	dir         string
	fs          FileSystem
	lockFactory FileLockFactory
	lockManager *LockManager
	logger      *slog.Logger
}

// NewFileSlots creates a file driver rooted at dir, creating the directory
// when needed.
func NewFileSlots(dir string, opts ...FileOption) (*FileSlots, error) {
	s := &FileSlots{
		dir:         dir,
		lockManager: NewLockManager(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Set defaults for dependencies not provided via options
	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.lockFactory == nil {
		s.lockFactory = FlockFactory{}
	}

	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return s, nil
}

// Path returns the file holding key.
func (s *FileSlots) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load implements Slots.Load
func (s *FileSlots) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.lockManager.Execute(key, ReadOperation, func() error {
		var err error
		data, err = s.read(key)
		return err
	})
	return data, err
}

// Modify implements Slots.Modify
func (s *FileSlots) Modify(ctx context.Context, key string, fn ModifyFunc) error {
	return s.lockManager.Execute(key, WriteOperation, func() error {
		ctx, cancel := context.WithTimeout(ctx, lockTimeout)
		defer cancel()

		lock := s.lockFactory.New(s.Path(key) + ".lock")
		if err := acquireLock(ctx, lock); err != nil {
			return err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				s.logger.Warn("failed to release slot lock", "slot", key, "error", err)
			}
		}()

		current, err := s.read(key)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return s.write(key, next)
	})
}

// Close implements Slots.Close
func (s *FileSlots) Close() error {
	return nil
}

// read returns the slot payload; the caller holds the slot lock.
func (s *FileSlots) read(key string) ([]byte, error) {
	data, err := s.fs.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	// Empty file is the same as no file
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

// write replaces the slot payload atomically; the caller holds the slot lock.
func (s *FileSlots) write(key string, data []byte) error {
	path := s.Path(key)
	tmpFile := path + ".tmp"
	if err := s.fs.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Rename temp file to actual file (atomic on most filesystems)
	if err := s.fs.Rename(tmpFile, path); err != nil {
		_ = s.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	s.logger.Debug("slot written", "slot", key, "bytes", len(data))
	return nil
}
