package pos

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as JSON numbers in snapshots and notifications.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	// TaxRate is applied for display only. Recorded transaction totals are
	// the untaxed subtotal.
	TaxRate = decimal.RequireFromString("0.13")

	// SplitTolerance bounds |cash+qr-total| for split payments, inclusive.
	SplitTolerance = decimal.RequireFromString("0.01")
)

// LineTotal is price times quantity.
func LineTotal(l OrderLine) decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal sums the line totals.
func Subtotal(lines []OrderLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineTotal(l))
	}
	return sum
}

// Totals is the display breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// OrderTotals computes subtotal, 13% tax rounded to cents, and their sum.
func OrderTotals(lines []OrderLine) Totals {
	sub := Subtotal(lines)
	tax := sub.Mul(TaxRate).Round(2)
	return Totals{Subtotal: sub, Tax: tax, Total: sub.Add(tax)}
}

// SplitMatches reports whether cash+qr is within SplitTolerance of total.
// The comparison is exact decimal arithmetic, so a difference of exactly
// 0.01 is accepted.
func SplitMatches(cash, qr, total decimal.Decimal) bool {
	return cash.Add(qr).Sub(total).Abs().LessThanOrEqual(SplitTolerance)
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
