package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrClosed  = errors.New("store closed")
	ErrCorrupt = errors.New("stored snapshot is corrupt")
)
