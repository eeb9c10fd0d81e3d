package slots

import (
	"fmt"

	"github.com/hack-pad/hackpadfs/mem"
)

// NewMemorySlots creates a file driver over an in-memory filesystem. Slots
// live as long as the process.
func NewMemorySlots(opts ...FileOption) (*FileSlots, error) {
	memFS, err := mem.NewFS()
	if err != nil {
		return nil, fmt.Errorf("failed to create memory filesystem: %w", err)
	}
	opts = append([]FileOption{
		WithFileSystem(HackpadFileSystem{FS: memFS}),
		WithFileLockFactory(NewLocalLockFactory()),
	}, opts...)
	return NewFileSlots(".", opts...)
}
