// Package store persists the intent→image cache across synthesis runs.
// The pipeline loads prior state at the start of a call, reads and writes
// entries while scheduling, and flushes once at the end. Backends are
// substitutable: the JSON file store is the default, the SQLite store
// trades the single atomic write for per-entry durability.
package store

import "context"

// Entry is one cached generation result, keyed by intent key.
type Entry struct {
	// Src is the resolved image source: a data URI or remote URL.
	Src string `json:"src"`
	// CreatedAt is the RFC 3339 timestamp of first generation.
	CreatedAt string `json:"createdAt"`
	// Uses counts how many times the entry satisfied a later request,
	// in this run or any future run.
	Uses int `json:"uses"`
	// Prompt is the prompt that produced Src. Diagnostic only.
	Prompt string `json:"prompt"`
}

// Store is the cache lifecycle the scheduler depends on. An entry is
// written once per key from a successful generation; afterwards only its
// use counter moves. Implementations must be safe for concurrent use by
// the scheduler's workers.
type Store interface {
	// Load reads prior state. A missing or corrupt backing store is an
	// empty cache, never an error.
	Load(ctx context.Context) error

	// Get returns the entry for key, if cached.
	Get(key string) (Entry, bool)

	// Put records a freshly generated entry. Existing keys are kept as-is.
	Put(key string, e Entry)

	// Touch increments the use counter for key and returns the new count,
	// or 0 if the key is not cached.
	Touch(key string) int

	// Flush durably persists the cache. Called once per synthesis call.
	Flush(ctx context.Context) error
}
