// Package sheets is the remote table store adapter.
//
// The remote store is a spreadsheet addressed by id. Each logical
// collection lives in its own sheet: row 1 is the header, every following
// row is one record. Writes clear the sheet and append header plus rows in
// one batch. The two calls are not atomic, so a reader can observe an empty
// or partial sheet between them.
//
// ValueStore is the raw cell transport. GoogleStore talks to the Sheets v4
// API; Memory keeps everything in process and records every call. Adapter
// maps domain collections onto rows through the alias table in schema.go.
package sheets
