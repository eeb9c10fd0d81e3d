package records

import "log/slog"

type options struct {
	logger *slog.Logger
	newID  func() string
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDFunc replaces the id generator (uuid.NewString by default).
func WithIDFunc(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}
