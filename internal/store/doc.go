// Package store is the local snapshot store: the durable fallback copy of
// the domain state and the persisted sync settings.
//
// A snapshot is five independent blobs, one per collection, each holding
// the full JSON-encoded record sequence. Saves overwrite whole blobs; there
// is no merge. The last writer wins.
//
// Two backends share that layout:
//   - Store: SQLite file, the default for a single terminal
//   - RedisStore: Redis keys under a prefix, for terminals that share a
//     host-local Redis
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
