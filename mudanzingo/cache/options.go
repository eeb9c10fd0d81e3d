package cache

import "log/slog"

// Option configures a Session.
type Option func(*Session)

// WithSleep replaces the function used for artificial latency.
func WithSleep(fn SleepFunc) Option {
	return func(s *Session) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithMetrics records cache activity in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}
