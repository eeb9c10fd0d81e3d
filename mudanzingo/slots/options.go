package slots

import "log/slog"

// FileOption configures the file driver
type FileOption func(*FileSlots)

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs FileSystem) FileOption {
	return func(s *FileSlots) {
		s.fs = fs
	}
}

// WithFileLockFactory sets a custom FileLockFactory implementation
func WithFileLockFactory(factory FileLockFactory) FileOption {
	return func(s *FileSlots) {
		s.lockFactory = factory
	}
}

// WithLogger sets the logger used for slot diagnostics
func WithLogger(logger *slog.Logger) FileOption {
	return func(s *FileSlots) {
		if logger != nil {
			s.logger = logger
		}
	}
}
