package sheets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/possync/internal/pos"
	"github.com/shopspring/decimal"
)

var errBlank = errors.New("blank")

// parseInt accepts "5", " 5 ", "5.0" and "5e0". Fractions are rejected.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errBlank
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}

// parseDecimal accepts plain and exponent notation plus a leading currency
// symbol or thousands separators as a sheet may display them.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errBlank
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(strings.TrimPrefix(s, "Rs."))
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a decimal: %q", s)
	}
	return d, nil
}

// decimalOrZero reads an optional amount.
func decimalOrZero(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if errors.Is(err, errBlank) {
		return decimal.Zero, nil
	}
	return d, err
}

// parseLines decodes a JSON-encoded OrderLine sequence. Numbers may be
// quoted or not. Lines with quantity below 1 are dropped.
func parseLines(s string) ([]pos.OrderLine, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []pos.OrderLine{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("order lines: %w", err)
	}
	lines := make([]pos.OrderLine, 0, len(raw))
	for i, m := range raw {
		l, err := lineFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("order line %d: %w", i, err)
		}
		if l.Quantity < 1 {
			continue
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func lineFromMap(m map[string]any) (pos.OrderLine, error) {
	var l pos.OrderLine
	id, err := parseInt(scalar(m["id"]))
	if err != nil {
		return l, fmt.Errorf("id: %w", err)
	}
	price, err := decimalOrZero(scalar(m["price"]))
	if err != nil {
		return l, fmt.Errorf("price: %w", err)
	}
	qty, err := parseInt(scalar(m["quantity"]))
	if err != nil {
		if !errors.Is(err, errBlank) {
			return l, fmt.Errorf("quantity: %w", err)
		}
		qty = 1
	}
	l.ID = id
	l.Name = scalar(m["name"])
	l.Price = price
	l.Category = scalar(m["category"])
	l.Quantity = int(qty)
	return l, nil
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// idCell writes ids as text. Snowflake ids exceed the integer range a
// spreadsheet number cell holds exactly.
func idCell(id int64) string {
	return strconv.FormatInt(id, 10)
}

func encodeLines(lines []pos.OrderLine) string {
	data, err := json.Marshal(pos.CloneLines(lines))
	if err != nil {
		// OrderLine holds only strings, ints and decimals.
		panic(err)
	}
	return string(data)
}

// DecodeTable maps a row onto a Table. A missing ID falls back to the number.
func DecodeTable(r Row) (pos.Table, error) {
	var t pos.Table
	num, err := parseInt(r.Get(FieldNumber))
	if err != nil {
		return t, fmt.Errorf("number: %w", err)
	}
	if num <= 0 {
		return t, fmt.Errorf("number: %d not positive", num)
	}
	id, err := parseInt(r.Get(FieldID))
	if err != nil {
		id = num
	}
	orders, err := parseLines(r.Get(FieldOrders))
	if err != nil {
		return t, err
	}
	t.ID = id
	t.Number = int(num)
	t.SetOrders(orders)
	return t, nil
}

func EncodeTable(t pos.Table) []any {
	return []any{idCell(t.ID), t.Number, string(t.Status), encodeLines(t.Orders)}
}

func DecodeMenuItem(r Row) (pos.MenuItem, error) {
	var m pos.MenuItem
	id, err := parseInt(r.Get(FieldID))
	if err != nil {
		return m, fmt.Errorf("id: %w", err)
	}
	name := r.Get(FieldName)
	if name == "" {
		return m, errors.New("name: blank")
	}
	price, err := parseDecimal(r.Get(FieldPrice))
	if err != nil {
		return m, fmt.Errorf("price: %w", err)
	}
	if price.IsNegative() {
		return m, fmt.Errorf("price: %s negative", price)
	}
	m.ID = id
	m.Name = name
	m.Price = price
	m.Category = r.Get(FieldCategory)
	if m.Category == "" {
		m.Category = pos.DefaultCategory
	}
	return m, nil
}

func EncodeMenuItem(m pos.MenuItem) []any {
	return []any{idCell(m.ID), m.Name, m.Price, m.Category}
}

// DecodeTicket maps a row onto a KitchenTicket. Blank status reads as pending.
func DecodeTicket(r Row) (pos.KitchenTicket, error) {
	var k pos.KitchenTicket
	id, err := parseInt(r.Get(FieldID))
	if err != nil {
		return k, fmt.Errorf("id: %w", err)
	}
	table, err := parseInt(r.Get(FieldTableNumber))
	if err != nil {
		return k, fmt.Errorf("tableNumber: %w", err)
	}
	items, err := parseLines(r.Get(FieldItems))
	if err != nil {
		return k, err
	}
	k.ID = id
	k.TableNumber = int(table)
	k.Items = items
	k.Status = pos.TicketPending
	switch s := pos.TicketStatus(strings.ToLower(r.Get(FieldStatus))); s {
	case pos.TicketReady, pos.TicketCompleted:
		k.Status = s
	}
	k.Timestamp = r.Get(FieldTimestamp)
	return k, nil
}

func EncodeTicket(k pos.KitchenTicket) []any {
	return []any{idCell(k.ID), k.TableNumber, encodeLines(k.Items), string(k.Status), k.Timestamp}
}

func DecodeTransaction(r Row) (pos.Transaction, error) {
	var tx pos.Transaction
	table, err := parseInt(r.Get(FieldTableNumber))
	if err != nil {
		return tx, fmt.Errorf("tableNumber: %w", err)
	}
	total, err := parseDecimal(r.Get(FieldTotal))
	if err != nil {
		return tx, fmt.Errorf("total: %w", err)
	}
	items, err := parseLines(r.Get(FieldItems))
	if err != nil {
		return tx, err
	}
	cash, err := decimalOrZero(r.Get(FieldCashAmount))
	if err != nil {
		return tx, fmt.Errorf("cashAmount: %w", err)
	}
	qr, err := decimalOrZero(r.Get(FieldQRAmount))
	if err != nil {
		return tx, fmt.Errorf("qrAmount: %w", err)
	}
	// Older sheets carry no ID column.
	id, _ := parseInt(r.Get(FieldID))

	tx.ID = id
	tx.TableNumber = int(table)
	tx.Items = items
	tx.Total = total
	tx.PaymentMethod = pos.PaymentMethod(r.Get(FieldPaymentMethod))
	tx.CashAmount = cash
	tx.QRAmount = qr
	tx.Timestamp = r.Get(FieldTimestamp)
	tx.Date = r.Get(FieldDate)
	return tx, nil
}

func EncodeTransaction(tx pos.Transaction) []any {
	return []any{
		idCell(tx.ID), tx.TableNumber, encodeLines(tx.Items), tx.Total, string(tx.PaymentMethod),
		tx.CashAmount, tx.QRAmount, tx.Timestamp, tx.Date,
	}
}

func DecodeExpense(r Row) (pos.Expense, error) {
	var e pos.Expense
	id, err := parseInt(r.Get(FieldID))
	if err != nil {
		return e, fmt.Errorf("id: %w", err)
	}
	amount, err := parseDecimal(r.Get(FieldAmount))
	if err != nil {
		return e, fmt.Errorf("amount: %w", err)
	}
	e.ID = id
	e.Description = r.Get(FieldDescription)
	e.Amount = amount
	e.Category = r.Get(FieldCategory)
	e.Timestamp = r.Get(FieldTimestamp)
	e.Date = r.Get(FieldDate)
	return e, nil
}

func EncodeExpense(e pos.Expense) []any {
	return []any{idCell(e.ID), e.Description, e.Amount, e.Category, e.Timestamp, e.Date}
}
