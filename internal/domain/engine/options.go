package engine

import (
	"time"

	"github.com/okian/fantasyfamily/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock sets the source of ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator sets the generator for player, member, definition and
// ledger ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithCommitHook registers a callback run after every successful state
// change, outside the engine lock.
func WithCommitHook(hook func(op string)) Option {
	return func(e *Engine) {
		e.onCommit = hook
	}
}

// WithSeedPlayers sets the player names created by Seed.
func WithSeedPlayers(names ...string) Option {
	return func(e *Engine) {
		e.seedPlayers = append([]string(nil), names...)
	}
}

// WithLogger sets the logger used for mutation tracing.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
