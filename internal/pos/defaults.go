package pos

import "github.com/shopspring/decimal"

// DefaultTableCount is the number of tables seeded on a fresh install.
const DefaultTableCount = 10

// DefaultCategory is used when a menu item is saved without a category.
const DefaultCategory = "Main"

type seedItem struct {
	name     string
	price    int64
	category string
}

var seedMenu = []seedItem{
	{"Momo", 150, "Main"},
	{"Chowmein", 120, "Main"},
	{"Fried Rice", 180, "Main"},
	{"Chicken Chilly", 250, "Main"},
	{"Veg Salad", 100, "Starter"},
	{"French Fries", 80, "Side"},
	{"Coke", 60, "Drink"},
	{"Water", 20, "Drink"},
	{"Ice Cream", 120, "Dessert"},
	{"Kheer", 100, "Dessert"},
}

// DefaultTables returns tables 1..10, all vacant. IDs equal the table number.
func DefaultTables() []Table {
	tables := make([]Table, DefaultTableCount)
	for i := range tables {
		tables[i] = Table{
			ID:     int64(i + 1),
			Number: i + 1,
			Status: TableVacant,
			Orders: []OrderLine{},
		}
	}
	return tables
}

// DefaultMenu returns the ten seed items with ids 1..10.
func DefaultMenu() []MenuItem {
	menu := make([]MenuItem, len(seedMenu))
	for i, s := range seedMenu {
		menu[i] = MenuItem{
			ID:       int64(i + 1),
			Name:     s.name,
			Price:    decimal.NewFromInt(s.price),
			Category: s.category,
		}
	}
	return menu
}

// DefaultSnapshot is the state of a fresh install.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Tables:       DefaultTables(),
		Menu:         DefaultMenu(),
		Tickets:      []KitchenTicket{},
		Transactions: []Transaction{},
		Expenses:     []Expense{},
	}
}
