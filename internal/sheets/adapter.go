package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/possync/internal/pos"
)

// Adapter reads and writes the five domain collections.
type Adapter struct {
	store ValueStore
	names pos.CollectionNames
}

// NewAdapter binds a value store to the configured sheet names.
func NewAdapter(store ValueStore, names pos.CollectionNames) *Adapter {
	return &Adapter{store: store, names: names.WithDefaults()}
}

// Names returns the sheet names in use.
func (a *Adapter) Names() pos.CollectionNames { return a.names }

// ReadCollection fetches a sheet and keys its rows by header. A missing or
// empty sheet yields no rows.
func (a *Adapter) ReadCollection(ctx context.Context, sheet string) ([]Row, error) {
	values, err := a.store.Get(ctx, sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	return KeyRows(values), nil
}

// WriteCollection replaces a sheet's content with header plus rows.
func (a *Adapter) WriteCollection(ctx context.Context, sheet string, cols []Field, rows [][]any) error {
	if err := a.store.Clear(ctx, ColumnsRange(sheet)); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}
	batch := make([][]any, 0, len(rows)+1)
	batch = append(batch, Header(cols))
	batch = append(batch, rows...)
	if err := a.store.Append(ctx, AnchorRange(sheet), batch); err != nil {
		return fmt.Errorf("append %s: %w", sheet, err)
	}
	return nil
}

// decodeAll applies decode to every row, logging and skipping rows that
// fail.
func decodeAll[T any](sheet string, rows []Row, decode func(Row) (T, error)) []T {
	out := make([]T, 0, len(rows))
	for i, r := range rows {
		v, err := decode(r)
		if err != nil {
			slog.Warn("skipping malformed row", "sheet", sheet, "row", i+2, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

func encodeAll[T any](items []T, encode func(T) []any) [][]any {
	out := make([][]any, len(items))
	for i, v := range items {
		out[i] = encode(v)
	}
	return out
}

func read[T any](ctx context.Context, a *Adapter, c pos.Collection, decode func(Row) (T, error)) ([]T, error) {
	sheet := a.names.Name(c)
	rows, err := a.ReadCollection(ctx, sheet)
	if err != nil {
		return nil, err
	}
	return decodeAll(sheet, rows, decode), nil
}

// dedupe keeps one item per key. A later row replaces an earlier one in
// place, so two writers that interleaved clear and append still read back
// as a single block.
func dedupe[T any, K comparable](sheet string, items []T, key func(T) K) []T {
	seen := make(map[K]int, len(items))
	out := items[:0]
	for _, v := range items {
		k := key(v)
		if i, ok := seen[k]; ok {
			slog.Warn("dropping duplicate row", "sheet", sheet, "key", k)
			out[i] = v
			continue
		}
		seen[k] = len(out)
		out = append(out, v)
	}
	return out
}

// ReadTables returns one table per number, in number order.
func (a *Adapter) ReadTables(ctx context.Context) ([]pos.Table, error) {
	tables, err := read(ctx, a, pos.CollectionTables, DecodeTable)
	if err != nil {
		return nil, err
	}
	tables = dedupe(a.names.Name(pos.CollectionTables), tables, func(t pos.Table) int { return t.Number })
	pos.SortTables(tables)
	return tables, nil
}

func (a *Adapter) ReadMenu(ctx context.Context) ([]pos.MenuItem, error) {
	return read(ctx, a, pos.CollectionMenu, DecodeMenuItem)
}

// ReadTickets returns the active tickets. Completed rows left behind by an
// older writer are filtered out.
func (a *Adapter) ReadTickets(ctx context.Context) ([]pos.KitchenTicket, error) {
	tickets, err := read(ctx, a, pos.CollectionOrders, DecodeTicket)
	if err != nil {
		return nil, err
	}
	tickets = dedupe(a.names.Name(pos.CollectionOrders), tickets, func(k pos.KitchenTicket) int64 { return k.ID })
	active := tickets[:0]
	for _, k := range tickets {
		if k.Active() {
			active = append(active, k)
		}
	}
	return active, nil
}

func (a *Adapter) ReadTransactions(ctx context.Context) ([]pos.Transaction, error) {
	return read(ctx, a, pos.CollectionTransactions, DecodeTransaction)
}

func (a *Adapter) ReadExpenses(ctx context.Context) ([]pos.Expense, error) {
	return read(ctx, a, pos.CollectionExpenses, DecodeExpense)
}

func (a *Adapter) WriteTables(ctx context.Context, tables []pos.Table) error {
	return a.WriteCollection(ctx, a.names.Tables, TablesColumns, encodeAll(tables, EncodeTable))
}

func (a *Adapter) WriteMenu(ctx context.Context, menu []pos.MenuItem) error {
	return a.WriteCollection(ctx, a.names.Menu, MenuColumns, encodeAll(menu, EncodeMenuItem))
}

// WriteTickets writes only tickets that have not completed.
func (a *Adapter) WriteTickets(ctx context.Context, tickets []pos.KitchenTicket) error {
	active := make([]pos.KitchenTicket, 0, len(tickets))
	for _, k := range tickets {
		if k.Active() {
			active = append(active, k)
		}
	}
	return a.WriteCollection(ctx, a.names.Orders, OrdersColumns, encodeAll(active, EncodeTicket))
}

func (a *Adapter) WriteTransactions(ctx context.Context, txs []pos.Transaction) error {
	return a.WriteCollection(ctx, a.names.Transactions, TransactionsColumns, encodeAll(txs, EncodeTransaction))
}

func (a *Adapter) WriteExpenses(ctx context.Context, expenses []pos.Expense) error {
	return a.WriteCollection(ctx, a.names.Expenses, ExpensesColumns, encodeAll(expenses, EncodeExpense))
}

// Title returns the spreadsheet title. It doubles as a reachability and
// credential check.
func (a *Adapter) Title(ctx context.Context) (string, error) {
	return a.store.Title(ctx)
}
