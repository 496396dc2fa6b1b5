// Package engine is the sync engine: it owns the client's domain state and
// reconciles it with the remote spreadsheet and the local snapshot store.
//
// ARCHITECTURE:
//
// State ownership:
// One Engine per running client owns one *pos.State. Callers mutate it
// only through Update and read it through View or Snapshot, both under the
// engine's mutex. Remote and local I/O always work on a cloned snapshot
// with the mutex released.
//
// Sync guard:
// PushAll, PullDelta, the debounced Tables push and Load share one
// in-progress flag. A call that finds the flag set does nothing and
// reports ErrCodeSyncBusy; it is neither queued nor retried.
//
// Background loop:
// The polling ticker, the debounce timer, foreground changes and remote
// hints enqueue Events. Run is the single consumer and handles them one at
// a time, so background syncs never overlap each other.
//
// Failure policy:
// A failed remote call marks the client disconnected and falls back to the
// local snapshot. Nothing retries on its own; the next tick, edit or
// explicit action is the retry. While a full push is outstanding a poll
// tick pushes instead of pulling so a pull cannot overwrite unpushed edits.
//
// Known limitation:
// Every push writes whole collections. Two clients editing different
// tables at the same time can overwrite each other's edit.
package engine
