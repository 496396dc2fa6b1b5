package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/roach88/possync/internal/pos"
)

// Currency prefixes amounts in summary lines.
const Currency = "Rs."

func money(d decimal.Decimal) string {
	return Currency + pos.FormatMoney(d)
}

// WriteCSV writes the export: per-line sales detail, sales summary,
// expense detail, expense summary by category and net profit. Sections are
// separated by a blank line and introduced by a "=== TITLE ===" record.
func WriteCSV(w io.Writer, snap pos.Snapshot) error {
	sum := Summarize(snap)
	cw := csv.NewWriter(w)

	// first holds the first failed write; later writes are skipped.
	var first error
	write := func(rec []string) {
		if first == nil {
			first = cw.Write(rec)
		}
	}
	section := func(title string) {
		write([]string{"=== " + title + " ==="})
	}
	blank := func() {
		if first != nil {
			return
		}
		cw.Flush()
		if first = cw.Error(); first == nil {
			_, first = io.WriteString(w, "\n")
		}
	}

	section("SALES REPORT")
	write([]string{"Table Number", "Item Name", "Quantity", "Price", "Item Total",
		"Order Total", "Payment Method", "Cash Amount", "QR Amount", "Date", "Time"})
	for _, tx := range snap.Transactions {
		for i, line := range tx.Items {
			rec := []string{
				strconv.Itoa(tx.TableNumber),
				line.Name,
				strconv.Itoa(line.Quantity),
				pos.FormatMoney(line.Price),
				pos.FormatMoney(pos.LineTotal(line)),
				"", "", "", "", "", "",
			}
			if i == 0 {
				rec[5] = pos.FormatMoney(tx.Total)
				rec[6] = string(tx.PaymentMethod)
				rec[7] = pos.FormatMoney(tx.CashAmount)
				rec[8] = pos.FormatMoney(tx.QRAmount)
				rec[9] = tx.Date
				rec[10] = tx.Timestamp
			}
			write(rec)
		}
	}
	blank()

	section("SALES SUMMARY")
	write([]string{"Total Sales", money(sum.Sales.Total)})
	write([]string{"Total Cash", money(sum.Sales.Cash)})
	write([]string{"Total QR", money(sum.Sales.QR)})
	write([]string{"Total Transactions", strconv.Itoa(sum.Sales.Count)})
	blank()

	section("EXPENSES REPORT")
	write([]string{"Description", "Amount", "Category", "Date", "Time"})
	for _, e := range snap.Expenses {
		write([]string{e.Description, pos.FormatMoney(e.Amount), e.Category, e.Date, e.Timestamp})
	}
	blank()

	section("EXPENSES SUMMARY")
	write([]string{"Total Expenses", money(sum.Expenses.Total)})
	for _, c := range sum.Expenses.ByCategory {
		write([]string{c.Category, money(c.Amount)})
	}
	blank()

	section("NET PROFIT")
	write([]string{"Total Sales", money(sum.Sales.Total)})
	write([]string{"Total Expenses", money(sum.Expenses.Total)})
	write([]string{"Net Profit", money(sum.NetProfit)})

	cw.Flush()
	err := first
	if err == nil {
		err = cw.Error()
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteSummary renders the reports view as aligned text.
func WriteSummary(w io.Writer, snap pos.Snapshot) error {
	sum := Summarize(snap)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Sales")
	fmt.Fprintf(tw, "  Total Sales\t%s\n", money(sum.Sales.Total))
	fmt.Fprintf(tw, "  Cash Sales\t%s\n", money(sum.Sales.Cash))
	fmt.Fprintf(tw, "  QR Sales\t%s\n", money(sum.Sales.QR))
	fmt.Fprintf(tw, "  Total Transactions\t%d\n", sum.Sales.Count)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Recent Transactions")
	if len(sum.Recent) == 0 {
		fmt.Fprintln(tw, "  No transactions yet")
	}
	for _, tx := range sum.Recent {
		fmt.Fprintf(tw, "  Table %d\t%s %s\t%s\n", tx.TableNumber, tx.Date, tx.Timestamp, money(tx.Total))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Expenses")
	fmt.Fprintf(tw, "  Total Expenses\t%s\n", money(sum.Expenses.Total))
	for _, c := range sum.Expenses.ByCategory {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Category, money(c.Amount))
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Net Profit\t%s\n", money(sum.NetProfit))

	return tw.Flush()
}
