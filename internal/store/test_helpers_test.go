package store

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/roach88/possync/internal/pos"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSnapshot returns defaults plus one occupied table, one ticket,
// one transaction and one expense.
func createTestSnapshot() pos.Snapshot {
	snap := pos.DefaultSnapshot()
	momo := snap.Menu[0].Line()
	momo.Quantity = 2
	snap.Tables[4].SetOrders([]pos.OrderLine{momo})
	snap.Tickets = []pos.KitchenTicket{{
		ID: 501, TableNumber: 5, Items: []pos.OrderLine{momo},
		Status: pos.TicketPending, Timestamp: "7:15:00 PM",
	}}
	snap.Transactions = []pos.Transaction{{
		ID: 601, TableNumber: 2, Items: []pos.OrderLine{snap.Menu[6].Line()},
		Total: decimal.NewFromInt(60), PaymentMethod: pos.PayCash,
		CashAmount: decimal.NewFromInt(60), QRAmount: decimal.Zero,
		Timestamp: "6:00:00 PM", Date: "3/1/2024",
	}}
	snap.Expenses = []pos.Expense{{
		ID: 701, Description: "Vegetables", Amount: decimal.RequireFromString("35.50"),
		Category: "Supplies", Timestamp: "9:00:00 AM", Date: "3/1/2024",
	}}
	return snap
}
