package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/roach88/possync/internal/pos"
)

// Payment is the settlement request for one table. Cash and QR are read
// only for PayBoth; single-method payments take the whole total.
type Payment struct {
	Table  int
	Method pos.PaymentMethod
	Cash   decimal.Decimal
	QR     decimal.Decimal
}

// ProcessPayment settles a table: it records a transaction for the table's
// orders, vacates the table and removes all of its tickets whatever their
// status. The transaction total is the untaxed subtotal.
func (s *Service) ProcessPayment(ctx context.Context, p Payment) (pos.Transaction, error) {
	const op = "service.payment"
	clock, date := s.stamp()

	var tx pos.Transaction
	created := false
	err := s.commit(ctx, op, func(st *pos.State) error {
		if !p.Method.Valid() {
			return pos.Errorf(pos.ErrCodeValidation, op, "payment method must be Cash, QR or Both, got %q", p.Method)
		}
		t, ok := st.Table(p.Table)
		if !ok {
			return pos.Errorf(pos.ErrCodeNotFound, op, "table %d not found", p.Table)
		}
		if len(t.Orders) == 0 {
			return pos.Errorf(pos.ErrCodeValidation, op, "table %d has no orders", p.Table)
		}

		total := pos.Subtotal(t.Orders)
		cash, qr := total, decimal.Zero
		switch p.Method {
		case pos.PayQR:
			cash, qr = decimal.Zero, total
		case pos.PayBoth:
			if p.Cash.IsNegative() || p.QR.IsNegative() {
				return pos.Errorf(pos.ErrCodeValidation, op, "amounts must not be negative")
			}
			if !pos.SplitMatches(p.Cash, p.QR, total) {
				return pos.Errorf(pos.ErrCodeValidation, op,
					"total must equal %s: cash %s + QR %s = %s",
					pos.FormatMoney(total), pos.FormatMoney(p.Cash), pos.FormatMoney(p.QR),
					pos.FormatMoney(p.Cash.Add(p.QR)))
			}
			cash, qr = p.Cash, p.QR
		}

		tx = pos.Transaction{
			ID:            s.ids.Next(),
			TableNumber:   t.Number,
			Items:         pos.CloneLines(t.Orders),
			Total:         total,
			PaymentMethod: p.Method,
			CashAmount:    cash,
			QRAmount:      qr,
			Timestamp:     clock,
			Date:          date,
		}
		st.Transactions = append(st.Transactions, tx)
		t.SetOrders(nil)
		st.Tickets = slices.DeleteFunc(st.Tickets, func(k pos.KitchenTicket) bool {
			return k.TableNumber == p.Table
		})
		if st.SelectedTable == p.Table {
			st.Deselect()
		}
		created = true
		return nil
	})
	if !created {
		return pos.Transaction{}, err
	}
	slog.Info("payment processed",
		"table", tx.TableNumber,
		"method", tx.PaymentMethod,
		"total", pos.FormatMoney(tx.Total),
	)
	return tx, err
}
