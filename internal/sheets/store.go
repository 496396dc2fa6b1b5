package sheets

import (
	"context"
	"strings"
)

// ValueStore reads and writes raw cell values by A1 range.
//
// Get on a sheet that does not exist returns no rows and no error. Cells
// come back as display strings.
type ValueStore interface {
	Get(ctx context.Context, rng string) ([][]string, error)
	Clear(ctx context.Context, rng string) error
	Append(ctx context.Context, rng string, rows [][]any) error
	Title(ctx context.Context) (string, error)
}

// ColumnsRange addresses every used column of a sheet.
func ColumnsRange(sheet string) string { return sheet + "!A:Z" }

// AnchorRange addresses the top-left cell of a sheet, where appends start.
func AnchorRange(sheet string) string { return sheet + "!A1" }

// SheetOf returns the sheet part of an A1 range.
func SheetOf(rng string) string {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		return rng[:i]
	}
	return rng
}
