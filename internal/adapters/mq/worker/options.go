package worker

import (
	"time"

	"github.com/okian/fantasyfamily/pkg/logger"
)

// Option applies a configuration option to the Saver.
type Option func(*Saver)

// WithDebounce sets the quiet period after the last request before a save
// runs. Zero saves as soon as a request is read.
func WithDebounce(d time.Duration) Option {
	return func(s *Saver) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithMaxWait caps how long continuous traffic can postpone a save.
func WithMaxWait(d time.Duration) Option {
	return func(s *Saver) {
		if d > 0 {
			s.maxWait = d
		}
	}
}

// WithClock overrides the source of save timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Saver) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the saver.
func WithLogger(l logger.Logger) Option {
	return func(s *Saver) {
		if l != nil {
			s.logger = l
		}
	}
}
