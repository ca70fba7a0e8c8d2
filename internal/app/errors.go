package app

import "errors"

// ErrPersistenceRead and related errors classify store failures.
var (
	ErrPersistenceRead    = errors.New("persistence read failed")
	ErrPersistenceWrite   = errors.New("persistence write failed")
	ErrRemoteFetch        = errors.New("remote snapshot fetch failed")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrNotInitialized     = errors.New("store not initialized")
	ErrNotFound           = errors.New("not found")
)
