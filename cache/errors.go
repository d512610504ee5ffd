package cache

import "errors"

var (
	// ErrStorageUnavailable means the backing database file or its directory
	// could not be created or opened. Fatal at startup.
	ErrStorageUnavailable = errors.New("cache: storage unavailable")

	// ErrStorageBusy is a transient failure to acquire the write lock within
	// the configured busy timeout. Callers may retry.
	ErrStorageBusy = errors.New("cache: storage busy")

	// ErrDuplicateKey is returned by the store's insert path when the key is
	// already present. Consumed by Set's upsert fallback, never surfaced by
	// the public API.
	ErrDuplicateKey = errors.New("cache: duplicate key")

	// ErrCorruptValue means stored bytes do not decode to a value previously
	// produced by the codec.
	ErrCorruptValue = errors.New("cache: corrupt value")

	// ErrNotFound is the store-level signal for a missing row. The facade
	// translates it to a miss, never an error.
	ErrNotFound = errors.New("cache: not found")
)
