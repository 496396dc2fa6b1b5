// Package service implements the point-of-sale operations on top of the
// sync engine.
//
// Operations come in two weights. Draft edits (AddItem, UpdateQuantity,
// RemoveItem, ClearOrder) mirror the draft into the selected table and ask
// the engine for a debounced Tables push. Everything else (order
// submission, kitchen actions, payment, table/menu/expense admin) mutates
// the state and then pushes all collections before returning.
//
// Every operation validates before it mutates: a VALIDATION or NOT_FOUND
// error leaves the state untouched. A heavyweight operation that returns a
// SYNC_FAILED error has still been applied and saved locally.
package service
