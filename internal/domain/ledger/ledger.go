// Package ledger is the activity history of logged events. Entries refer to
// players and members by name.
package ledger

import (
	"github.com/okian/fantasyfamily/internal/domain/model"
)

// Ledger stores entries oldest first so appends are amortised O(1); reads
// come back newest first. It is not safe for concurrent use.
type Ledger struct {
	entries []model.LoggedEvent
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append records an entry as the newest one.
func (l *Ledger) Append(e model.LoggedEvent) {
	l.entries = append(l.entries, e)
}

// List returns all entries, newest first.
func (l *Ledger) List() []model.LoggedEvent {
	return l.Recent(len(l.entries))
}

// Recent returns at most n entries, newest first.
func (l *Ledger) Recent(n int) []model.LoggedEvent {
	if n > len(l.entries) {
		n = len(l.entries)
	}
	if n < 0 {
		n = 0
	}
	out := make([]model.LoggedEvent, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.entries) }

// RenameReferences rewrites PlayerName from oldName to newName and returns
// the number of entries changed.
func (l *Ledger) RenameReferences(oldName, newName string) int {
	n := 0
	for i := range l.entries {
		if l.entries[i].PlayerName == oldName {
			l.entries[i].PlayerName = newName
			n++
		}
	}
	return n
}

// RemoveReferences drops every entry whose PlayerName equals name and
// returns the number removed.
func (l *Ledger) RemoveReferences(name string) int {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.PlayerName != name {
			kept = append(kept, e)
		}
	}
	removed := len(l.entries) - len(kept)
	clear(l.entries[len(kept):])
	l.entries = kept
	return removed
}

// Reset replaces the ledger with entries given newest first, the order used
// by snapshots.
func (l *Ledger) Reset(newestFirst []model.LoggedEvent) {
	l.entries = make([]model.LoggedEvent, len(newestFirst))
	for i, e := range newestFirst {
		l.entries[len(newestFirst)-1-i] = e
	}
}
