// Package cache provides a file-based cache for per-file scan results.
//
// Entries are keyed by a SHA-256 hash of the rule-set fingerprint, the
// active rule IDs, the file's display path and its content, so any change to
// the rules or the file misses. Each entry stores the serialized matches
// with a creation timestamp; entries older than the TTL are skipped on read
// and removed by Prune.
//
// Entries are sharded into subdirectories by the first two hex digits of
// the key hash and written through a temporary file, so concurrent scans of
// different files never observe a partial entry.
//
// The default cache directory is $XDG_CACHE_HOME/csreview (or the
// OS-appropriate equivalent).
package cache
