// Package pos holds the point-of-sale domain model shared by the sync engine,
// the remote table adapter, the snapshot store and the domain operations.
//
// The package has no I/O. It defines:
//   - the five synchronized collections (tables, menu, kitchen tickets,
//     transactions, expenses) and the State aggregate that owns them
//   - the occupancy invariant helpers (a table is occupied iff it has orders)
//   - money arithmetic on shopspring/decimal values
//   - the error taxonomy surfaced to callers
//   - id generation and change-detection fingerprints
//
// State is a plain container. It is not safe for concurrent use; the engine
// guards the single instance it owns.
package pos
