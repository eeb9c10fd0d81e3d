package slots

import (
	"io/fs"
	"os"
	"sync"
)

// MockFileSystem provides an in-memory implementation of FileSystem for testing
type MockFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte

	// Errors injected into the matching operation when set
	ReadFileError  error
	WriteFileError error
	RenameError    error
	RemoveError    error
	MkdirError     error

	// Writes counts successful WriteFile calls
	Writes int
}

// NewMockFileSystem creates a new mock file system
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{files: make(map[string][]byte)}
}

// ReadFile implements FileSystem.ReadFile
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileError != nil {
		return nil, m.ReadFileError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	content, exists := m.files[name]
	if !exists {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), content...), nil
}

// WriteFile implements FileSystem.WriteFile
func (m *MockFileSystem) WriteFile(name string, data []byte, _ fs.FileMode) error {
	if m.WriteFileError != nil {
		return m.WriteFileError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[name] = append([]byte(nil), data...)
	m.Writes++
	return nil
}

// Rename implements FileSystem.Rename
func (m *MockFileSystem) Rename(oldpath, newpath string) error {
	if m.RenameError != nil {
		return m.RenameError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	content, exists := m.files[oldpath]
	if !exists {
		return os.ErrNotExist
	}
	m.files[newpath] = content
	delete(m.files, oldpath)
	return nil
}

// Remove implements FileSystem.Remove
func (m *MockFileSystem) Remove(name string) error {
	if m.RemoveError != nil {
		return m.RemoveError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[name]; !exists {
		return os.ErrNotExist
	}
	delete(m.files, name)
	return nil
}

// MkdirAll implements FileSystem.MkdirAll
func (m *MockFileSystem) MkdirAll(string, fs.FileMode) error {
	return m.MkdirError
}

// FileExists is a helper method for testing
func (m *MockFileSystem) FileExists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.files[name]
	return exists
}

// SetFileContent seeds a file for testing
func (m *MockFileSystem) SetFileContent(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
}

// GetFileContent is a helper method for testing
func (m *MockFileSystem) GetFileContent(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, exists := m.files[name]
	if !exists {
		return nil, false
	}
	return append([]byte(nil), content...), true
}
