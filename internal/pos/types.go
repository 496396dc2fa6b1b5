package pos

import (
	"github.com/shopspring/decimal"
)

// TableStatus is the occupancy of a table.
type TableStatus string

const (
	TableVacant   TableStatus = "vacant"
	TableOccupied TableStatus = "occupied"
)

// ParseTableStatus maps remote text onto a status. Unknown or empty text reads
// as vacant.
func ParseTableStatus(s string) TableStatus {
	if TableStatus(s) == TableOccupied {
		return TableOccupied
	}
	return TableVacant
}

// TicketStatus is the kitchen state of a ticket.
type TicketStatus string

const (
	TicketPending   TicketStatus = "pending"
	TicketReady     TicketStatus = "ready"
	TicketCompleted TicketStatus = "completed"
)

// PaymentMethod is how a table settled its bill.
type PaymentMethod string

const (
	PayCash PaymentMethod = "Cash"
	PayQR   PaymentMethod = "QR"
	PayBoth PaymentMethod = "Both"
)

// Valid reports whether m is one of Cash, QR or Both.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayQR, PayBoth:
		return true
	}
	return false
}

// OrderLine is a denormalized menu item plus quantity. ID equals the MenuItem ID.
// Lines are never stored with a quantity below 1.
type OrderLine struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
}

// Table is a seating position. Number is unique across the collection.
type Table struct {
	ID     int64       `json:"id"`
	Number int         `json:"number"`
	Status TableStatus `json:"status"`
	Orders []OrderLine `json:"orders"`
}

// MenuItem is an entry of the catalog.
type MenuItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// Line returns a one-unit order line copied from the item.
func (m MenuItem) Line() OrderLine {
	return OrderLine{ID: m.ID, Name: m.Name, Price: m.Price, Category: m.Category, Quantity: 1}
}

// KitchenTicket is the kitchen-facing request for one table. Tickets reaching
// TicketCompleted leave the active set.
type KitchenTicket struct {
	ID          int64        `json:"id"`
	TableNumber int          `json:"tableNumber"`
	Items       []OrderLine  `json:"items"`
	Status      TicketStatus `json:"status"`
	Timestamp   string       `json:"timestamp"`
}

// Active reports whether the ticket belongs to the active set.
func (k KitchenTicket) Active() bool {
	return k.Status != TicketCompleted
}

// Transaction is the immutable record of one payment completion.
type Transaction struct {
	ID            int64           `json:"id"`
	TableNumber   int             `json:"tableNumber"`
	Items         []OrderLine     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CashAmount    decimal.Decimal `json:"cashAmount"`
	QRAmount      decimal.Decimal `json:"qrAmount"`
	Timestamp     string          `json:"timestamp"`
	Date          string          `json:"date"`
}

// Expense is an outgoing payment recorded by the owner.
type Expense struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Timestamp   string          `json:"timestamp"`
	Date        string          `json:"date"`
}

// Clock layouts for the human-readable timestamp and date fields.
const (
	TimeLayout = "3:04:05 PM"
	DateLayout = "1/2/2006"
)

// CloneLines returns an independent copy of lines. A nil input yields an
// empty, non-nil slice so encoded JSON is [] rather than null.
func CloneLines(lines []OrderLine) []OrderLine {
	out := make([]OrderLine, len(lines))
	copy(out, lines)
	return out
}
