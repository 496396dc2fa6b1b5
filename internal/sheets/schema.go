package sheets

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field is one logical column. Name is written as the header; any of
// Aliases is accepted when reading.
type Field struct {
	Name    string
	Aliases []string
}

var (
	FieldID            = Field{"ID", []string{"ID", "id"}}
	FieldNumber        = Field{"Number", []string{"Number", "number"}}
	FieldStatus        = Field{"Status", []string{"Status", "status"}}
	FieldOrders        = Field{"Orders", []string{"Orders", "orders"}}
	FieldName          = Field{"Name", []string{"Name", "name"}}
	FieldPrice         = Field{"Price", []string{"Price", "price"}}
	FieldCategory      = Field{"Category", []string{"Category", "category"}}
	FieldTableNumber   = Field{"TableNumber", []string{"TableNumber", "tableNumber"}}
	FieldItems         = Field{"Items", []string{"Items", "items"}}
	FieldTimestamp     = Field{"Timestamp", []string{"Timestamp", "timestamp"}}
	FieldTotal         = Field{"Total", []string{"Total", "total"}}
	FieldPaymentMethod = Field{"PaymentMethod", []string{"PaymentMethod", "paymentMethod"}}
	FieldCashAmount    = Field{"CashAmount", []string{"CashAmount", "cashAmount"}}
	FieldQRAmount      = Field{"QRAmount", []string{"QRAmount", "qrAmount"}}
	FieldDate          = Field{"Date", []string{"Date", "date"}}
	FieldDescription   = Field{"Description", []string{"Description", "description"}}
	FieldAmount        = Field{"Amount", []string{"Amount", "amount"}}
)

// Column layouts written per collection.
var (
	TablesColumns       = []Field{FieldID, FieldNumber, FieldStatus, FieldOrders}
	MenuColumns         = []Field{FieldID, FieldName, FieldPrice, FieldCategory}
	OrdersColumns       = []Field{FieldID, FieldTableNumber, FieldItems, FieldStatus, FieldTimestamp}
	TransactionsColumns = []Field{
		FieldID, FieldTableNumber, FieldItems, FieldTotal, FieldPaymentMethod,
		FieldCashAmount, FieldQRAmount, FieldTimestamp, FieldDate,
	}
	ExpensesColumns = []Field{FieldID, FieldDescription, FieldAmount, FieldCategory, FieldTimestamp, FieldDate}
)

// Header returns the header row for a column layout.
func Header(cols []Field) []any {
	out := make([]any, len(cols))
	for i, f := range cols {
		out[i] = f.Name
	}
	return out
}

func normalizeHeader(h string) string {
	return norm.NFC.String(strings.TrimSpace(h))
}

// Row is one record keyed by its (normalized) header cells.
type Row map[string]string

// Get returns the first non-empty cell matching one of f's aliases.
func (r Row) Get(f Field) string {
	for _, a := range f.Aliases {
		if v, ok := r[a]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// KeyRows turns a raw sheet into records using its first row as header.
// Short rows read as empty cells. Entirely blank rows are dropped.
func KeyRows(values [][]string) []Row {
	if len(values) == 0 {
		return nil
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = normalizeHeader(h)
	}
	rows := make([]Row, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make(Row, len(header))
		blank := true
		for i, h := range header {
			if h == "" {
				continue
			}
			v := ""
			if i < len(raw) {
				v = raw[i]
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			row[h] = v
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}
