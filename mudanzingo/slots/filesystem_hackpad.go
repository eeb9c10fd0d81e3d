package slots

import (
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/hack-pad/hackpadfs"
)

// HackpadFileSystem adapts a hackpadfs filesystem (in-memory, IndexedDB) to
// FileSystem. Names are converted to slash-separated io/fs paths.
type HackpadFileSystem struct {
	FS hackpadfs.FS
}

func hackpadPath(name string) string {
	p := path.Clean(filepath.ToSlash(name))
	return strings.TrimPrefix(p, "/")
}

// ReadFile implements FileSystem.ReadFile
func (h HackpadFileSystem) ReadFile(name string) ([]byte, error) {
	return hackpadfs.ReadFile(h.FS, hackpadPath(name))
}

// WriteFile implements FileSystem.WriteFile
func (h HackpadFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return hackpadfs.WriteFullFile(h.FS, hackpadPath(name), data, perm)
}

// Rename implements FileSystem.Rename. Filesystems without rename support
// get a copy followed by a remove.
func (h HackpadFileSystem) Rename(oldpath, newpath string) error {
	oldp, newp := hackpadPath(oldpath), hackpadPath(newpath)
	err := hackpadfs.Rename(h.FS, oldp, newp)
	if !errors.Is(err, hackpadfs.ErrNotImplemented) {
		return err
	}
	data, err := hackpadfs.ReadFile(h.FS, oldp)
	if err != nil {
		return err
	}
	if err := hackpadfs.WriteFullFile(h.FS, newp, data, 0o644); err != nil {
		return err
	}
	return hackpadfs.Remove(h.FS, oldp)
}

// Remove implements FileSystem.Remove
func (h HackpadFileSystem) Remove(name string) error {
	return hackpadfs.Remove(h.FS, hackpadPath(name))
}

// MkdirAll implements FileSystem.MkdirAll
func (h HackpadFileSystem) MkdirAll(dir string, perm fs.FileMode) error {
	p := hackpadPath(dir)
	if p == "." || p == "" {
		return nil
	}
	return hackpadfs.MkdirAll(h.FS, p, perm)
}
