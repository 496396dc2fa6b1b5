package pos

import (
	"cmp"
	"slices"
)

// Collection names a logical synchronized collection.
type Collection string

const (
	CollectionTables       Collection = "tables"
	CollectionMenu         Collection = "menu"
	CollectionOrders       Collection = "orders"
	CollectionTransactions Collection = "transactions"
	CollectionExpenses     Collection = "expenses"
)

// Collections lists the five collections in push order.
var Collections = []Collection{
	CollectionTables,
	CollectionMenu,
	CollectionOrders,
	CollectionTransactions,
	CollectionExpenses,
}

// Snapshot is the persisted part of the domain state: the five collections.
type Snapshot struct {
	Tables       []Table         `json:"tables"`
	Menu         []MenuItem      `json:"menu"`
	Tickets      []KitchenTicket `json:"tickets"`
	Transactions []Transaction   `json:"transactions"`
	Expenses     []Expense       `json:"expenses"`
}

// Clone returns a deep copy. Nested order lines are copied too, so the result
// can be encoded off-lock while the original keeps changing.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Tables:       make([]Table, len(s.Tables)),
		Menu:         make([]MenuItem, len(s.Menu)),
		Tickets:      make([]KitchenTicket, len(s.Tickets)),
		Transactions: make([]Transaction, len(s.Transactions)),
		Expenses:     make([]Expense, len(s.Expenses)),
	}
	for i, t := range s.Tables {
		t.Orders = CloneLines(t.Orders)
		out.Tables[i] = t
	}
	copy(out.Menu, s.Menu)
	for i, k := range s.Tickets {
		k.Items = CloneLines(k.Items)
		out.Tickets[i] = k
	}
	for i, tx := range s.Transactions {
		tx.Items = CloneLines(tx.Items)
		out.Transactions[i] = tx
	}
	copy(out.Expenses, s.Expenses)
	return out
}

// Normalize enforces the structural invariants after data arrives from
// outside (remote read, snapshot load): tables sorted by number with status
// derived from orders, completed tickets dropped, nil slices replaced.
func (s *Snapshot) Normalize() {
	for i := range s.Tables {
		s.Tables[i].SetOrders(s.Tables[i].Orders)
	}
	SortTables(s.Tables)
	s.Tickets = slices.DeleteFunc(s.Tickets, func(k KitchenTicket) bool { return !k.Active() })
	for i := range s.Tickets {
		if s.Tickets[i].Items == nil {
			s.Tickets[i].Items = []OrderLine{}
		}
	}
	for i := range s.Transactions {
		if s.Transactions[i].Items == nil {
			s.Transactions[i].Items = []OrderLine{}
		}
	}
	if s.Tables == nil {
		s.Tables = []Table{}
	}
	if s.Menu == nil {
		s.Menu = []MenuItem{}
	}
	if s.Tickets == nil {
		s.Tickets = []KitchenTicket{}
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Expenses == nil {
		s.Expenses = []Expense{}
	}
}

// SetOrders replaces the table's lines and keeps status in step:
// occupied iff at least one line remains.
func (t *Table) SetOrders(lines []OrderLine) {
	t.Orders = CloneLines(lines)
	if len(t.Orders) > 0 {
		t.Status = TableOccupied
	} else {
		t.Status = TableVacant
	}
}

// SortTables orders tables by number in place.
func SortTables(tables []Table) {
	slices.SortStableFunc(tables, func(a, b Table) int { return cmp.Compare(a.Number, b.Number) })
}

// State is the in-memory source of truth of one client: the snapshot plus the
// table currently selected for editing and its draft order.
type State struct {
	Snapshot

	// SelectedTable is the number of the table being edited, 0 when none.
	SelectedTable int
	CurrentOrder  []OrderLine
}

// NewState returns a state seeded with the default tables and menu.
func NewState() *State {
	s := &State{Snapshot: DefaultSnapshot()}
	s.CurrentOrder = []OrderLine{}
	return s
}

// Table returns a pointer to the table with the given number.
func (s *State) Table(number int) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Number == number {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// MenuItem returns a pointer to the menu item with the given id.
func (s *State) MenuItem(id int64) (*MenuItem, bool) {
	for i := range s.Menu {
		if s.Menu[i].ID == id {
			return &s.Menu[i], true
		}
	}
	return nil, false
}

// Ticket returns a pointer to the active ticket with the given id.
func (s *State) Ticket(id int64) (*KitchenTicket, bool) {
	for i := range s.Tickets {
		if s.Tickets[i].ID == id {
			return &s.Tickets[i], true
		}
	}
	return nil, false
}

// TicketsFor returns the active tickets of one table.
func (s *State) TicketsFor(number int) []KitchenTicket {
	var out []KitchenTicket
	for _, k := range s.Tickets {
		if k.TableNumber == number {
			out = append(out, k)
		}
	}
	return out
}

// MirrorDraft copies the draft order into the selected table. It is called
// after every draft edit so the table's orders and status never lag the draft.
func (s *State) MirrorDraft() bool {
	t, ok := s.Table(s.SelectedTable)
	if !ok {
		return false
	}
	t.SetOrders(s.CurrentOrder)
	return true
}

// Deselect drops the selection and its draft. Lines already mirrored into the
// table stay there.
func (s *State) Deselect() {
	s.SelectedTable = 0
	s.CurrentOrder = []OrderLine{}
}

// ReplaceTables swaps in a pulled tables collection. The draft follows the
// selected table's pulled orders; the selection is dropped when the table no
// longer exists.
func (s *State) ReplaceTables(tables []Table) {
	s.Tables = tables
	if s.SelectedTable == 0 {
		return
	}
	t, ok := s.Table(s.SelectedTable)
	if !ok {
		s.Deselect()
		return
	}
	s.CurrentOrder = CloneLines(t.Orders)
}
