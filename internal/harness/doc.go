// Package harness runs point-of-sale scenarios against clients sharing one
// in-memory spreadsheet.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: split_payment
//	description: "What this scenario checks"
//	clients: [a, b]
//	steps:
//	  - client: a
//	    op: select_table
//	    args: { table: 5 }
//	  - op: fail_remote
//	    args: { call: append }
//	  - client: a
//	    op: pay
//	    args: { table: 5, method: Both, cash: "60.00", qr: "39.99" }
//	    expect: { error: SYNC_FAILED }
//	assertions:
//	  - type: trace_count
//	    call: "clear Tables!A:Z"
//	    count: 1
//	  - type: final_state
//	    client: a
//	    collection: tables
//	    where: { number: 5 }
//	    expect: { status: vacant }
//
// Every client gets its own engine, service and in-memory SQLite store.
// Clients share the remote and a fake clock fixed at testutil.Epoch. The
// debounce window is an hour and polling is off, so Tables pushes happen
// only on an explicit flush step and traces are deterministic.
//
// # Assertion Types
//
//   - trace_contains: an op (with subset-matched args) or a remote call appears
//   - trace_order: ops or calls appear in the given order
//   - trace_count: an op or remote call appears exactly N times
//   - final_state: records of a collection matching where have the expected
//     fields; source picks the engine state (default), the saved local
//     snapshot, or the remote sheet
package harness
