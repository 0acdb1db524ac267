package history

import "errors"

// Sentinel errors for the history store.
var (
	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("history: store closed")
)
