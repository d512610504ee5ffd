// Package cache is a persistent key/value cache backed by a single SQLite
// file, with per-entry expiration and a JSON-like value model.
//
// # Layout
//
// Entries live in one table of (key, val, exp) rows. Keys are
// case-insensitive and unique; values and expiry deadlines are opaque
// msgpack blobs. The database uses [modernc.org/sqlite] (pure Go, no CGO)
// with WAL journaling and a 30 second busy timeout.
//
// # Semantics
//
//   - [Cache.Get] lower-cases the key, checks freshness, and lazily deletes
//     stale or corrupt rows. There is no background sweeper: an expired
//     entry stays on disk until a Get targets its key.
//   - [Cache.Set] tries an insert and transparently falls back to replace
//     on a duplicate key, so two concurrent Sets on an absent key still
//     converge to a single coherent row (last writer wins).
//   - [Cache.Update] replaces unconditionally.
//   - Write failures are logged and swallowed; a cache write must never
//     break the caller's primary workflow. Read-path corruption is
//     self-healing (delete and report a miss).
//
// # Expiry
//
// Deadlines are absolute epoch seconds. A missing TTL means
// [DefaultTTL] (30 days); freshness is the strict comparison deadline >
// now. The deadline 0 is a reserved never-expire sentinel that is honored
// when read back but never produced by a write.
//
// # Values
//
// [Value] is a tagged union of null, bool, number, string, sequence, and
// order-preserving string-keyed mapping. The codec round-trips any Value
// tree and fails atomically with [ErrCorruptValue] on anything else. The
// cache is agnostic to what callers store; record schemas live above it.
package cache
