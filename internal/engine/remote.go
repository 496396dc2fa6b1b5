package engine

import (
	"context"

	"github.com/roach88/possync/internal/pos"
)

// Remote is the remote table store as the engine sees it. *sheets.Adapter
// implements it.
type Remote interface {
	ReadTables(ctx context.Context) ([]pos.Table, error)
	ReadMenu(ctx context.Context) ([]pos.MenuItem, error)
	ReadTickets(ctx context.Context) ([]pos.KitchenTicket, error)
	ReadTransactions(ctx context.Context) ([]pos.Transaction, error)
	ReadExpenses(ctx context.Context) ([]pos.Expense, error)

	WriteTables(ctx context.Context, tables []pos.Table) error
	WriteMenu(ctx context.Context, menu []pos.MenuItem) error
	WriteTickets(ctx context.Context, tickets []pos.KitchenTicket) error
	WriteTransactions(ctx context.Context, txs []pos.Transaction) error
	WriteExpenses(ctx context.Context, expenses []pos.Expense) error

	Title(ctx context.Context) (string, error)
}

// RemoteFactory builds a Remote for a configuration. It is called again
// whenever the settings change.
type RemoteFactory func(ctx context.Context, cfg pos.SyncConfig) (Remote, error)

// Local is the local snapshot store plus the persisted settings blob.
// *store.Store and *store.RedisStore implement it.
type Local interface {
	SaveSnapshot(ctx context.Context, snap pos.Snapshot) error
	LoadSnapshot(ctx context.Context) (pos.Snapshot, bool, error)
	SaveSettings(ctx context.Context, cfg pos.SyncConfig) error
	LoadSettings(ctx context.Context) (pos.SyncConfig, bool, error)
}
