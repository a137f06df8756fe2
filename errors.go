package synister

import "errors"

// Common errors for session store operations.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrNotFound         = errors.New("session not found")
	ErrOwnerNotFound    = errors.New("owner not found")
	ErrDecode           = errors.New("stored value could not be decoded")
	ErrClosed           = errors.New("already closed")
)
