// Package report builds the sales and expense summaries and the
// downloadable report export.
package report

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/possync/internal/pos"
)

// RecentLimit is how many transactions Summary.Recent holds.
const RecentLimit = 10

// Sales aggregates recorded transactions.
type Sales struct {
	Total decimal.Decimal
	Cash  decimal.Decimal
	QR    decimal.Decimal
	Count int
}

// CategoryTotal is the expense sum of one category.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// Expenses aggregates recorded expenses. ByCategory keeps the order in which
// categories first appear.
type Expenses struct {
	Total      decimal.Decimal
	ByCategory []CategoryTotal
}

// Summary is everything the reports view shows.
type Summary struct {
	Sales     Sales
	Expenses  Expenses
	NetProfit decimal.Decimal
	// Recent holds the newest transactions first.
	Recent []pos.Transaction
}

// Summarize computes the summary of a snapshot.
func Summarize(snap pos.Snapshot) Summary {
	var s Summary
	s.Sales = Sales{Total: decimal.Zero, Cash: decimal.Zero, QR: decimal.Zero, Count: len(snap.Transactions)}
	for _, tx := range snap.Transactions {
		s.Sales.Total = s.Sales.Total.Add(tx.Total)
		s.Sales.Cash = s.Sales.Cash.Add(tx.CashAmount)
		s.Sales.QR = s.Sales.QR.Add(tx.QRAmount)
	}

	s.Expenses.Total = decimal.Zero
	for _, e := range snap.Expenses {
		s.Expenses.Total = s.Expenses.Total.Add(e.Amount)
		i := slices.IndexFunc(s.Expenses.ByCategory, func(c CategoryTotal) bool { return c.Category == e.Category })
		if i < 0 {
			s.Expenses.ByCategory = append(s.Expenses.ByCategory, CategoryTotal{Category: e.Category, Amount: e.Amount})
			continue
		}
		s.Expenses.ByCategory[i].Amount = s.Expenses.ByCategory[i].Amount.Add(e.Amount)
	}

	s.NetProfit = s.Sales.Total.Sub(s.Expenses.Total)

	start := max(0, len(snap.Transactions)-RecentLimit)
	s.Recent = slices.Clone(snap.Transactions[start:])
	slices.Reverse(s.Recent)
	return s
}

// FileName is the export file name for the given day.
func FileName(now time.Time) string {
	return "restaurant_report_" + strings.ReplaceAll(now.Format(pos.DateLayout), "/", "-") + ".csv"
}

// Available reports whether there is anything to export.
func Available(snap pos.Snapshot) bool {
	return len(snap.Transactions) > 0 || len(snap.Expenses) > 0
}
