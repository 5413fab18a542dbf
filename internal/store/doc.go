// Package store provides the document store collaborators behind every
// REST resource.
//
// A resource is backed by a Model: find/sort/exec for collection reads,
// FindOne for entity loads, New/Save for inserts and updates, Remove for
// deletes. Three backends implement it:
//   - SQLite (Open): durable, single file, documents stored as JSON text
//   - Memory (NewMemory): in-process, used by tests and throwaway servers
//   - MongoDB (package mongostore)
//
// # Ordering
//
// Every inserted document is stamped with a seq from a logical clock.
// Queries without a SortSpec return documents in seq order, so results
// are deterministic across backends.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// All backend failures are returned as *StoreError; a missing document
// wraps ErrNotFound.
package store
