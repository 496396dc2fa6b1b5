package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/possync/internal/pos"
)

// DefaultExpenseCategory is used when an expense has no category.
const DefaultExpenseCategory = "Other"

// AddTable creates a vacant table. Numbers must be positive and unique.
func (s *Service) AddTable(ctx context.Context, number int) (pos.Table, error) {
	const op = "service.add_table"

	var table pos.Table
	created := false
	err := s.commit(ctx, op, func(st *pos.State) error {
		if number <= 0 {
			return pos.Errorf(pos.ErrCodeValidation, op, "table number must be positive, got %d", number)
		}
		if _, ok := st.Table(number); ok {
			return pos.Errorf(pos.ErrCodeValidation, op, "table %d already exists", number)
		}
		table = pos.Table{ID: s.ids.Next(), Number: number, Status: pos.TableVacant, Orders: []pos.OrderLine{}}
		st.Tables = append(st.Tables, table)
		pos.SortTables(st.Tables)
		created = true
		return nil
	})
	if !created {
		return pos.Table{}, err
	}
	slog.Info("table added", "table", number)
	return table, err
}

// DeleteTable removes a vacant table.
func (s *Service) DeleteTable(ctx context.Context, number int) error {
	const op = "service.delete_table"
	return s.commit(ctx, op, func(st *pos.State) error {
		t, ok := st.Table(number)
		if !ok {
			return pos.Errorf(pos.ErrCodeNotFound, op, "table %d not found", number)
		}
		if t.Status == pos.TableOccupied {
			return pos.Errorf(pos.ErrCodeValidation, op, "table %d is occupied", number)
		}
		st.Tables = slices.DeleteFunc(st.Tables, func(t pos.Table) bool { return t.Number == number })
		if st.SelectedTable == number {
			st.Deselect()
		}
		return nil
	})
}

// MenuItemInput is the editable part of a menu item. ID 0 creates a new
// item; any other ID edits that item.
type MenuItemInput struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Category string
}

// SaveMenuItem creates or edits a menu item. Names must be non-blank and
// prices positive; a blank category reads as pos.DefaultCategory. Order
// lines already on tables keep the values they were added with.
func (s *Service) SaveMenuItem(ctx context.Context, in MenuItemInput) (pos.MenuItem, error) {
	const op = "service.save_menu_item"

	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = pos.DefaultCategory
	}

	var item pos.MenuItem
	saved := false
	err := s.commit(ctx, op, func(st *pos.State) error {
		if name == "" {
			return pos.Errorf(pos.ErrCodeValidation, op, "name is required")
		}
		if !in.Price.IsPositive() {
			return pos.Errorf(pos.ErrCodeValidation, op, "price must be positive, got %s", in.Price)
		}
		if in.ID != 0 {
			existing, ok := st.MenuItem(in.ID)
			if !ok {
				return pos.Errorf(pos.ErrCodeNotFound, op, "menu item %d not found", in.ID)
			}
			existing.Name, existing.Price, existing.Category = name, in.Price, category
			item = *existing
		} else {
			item = pos.MenuItem{ID: s.ids.Next(), Name: name, Price: in.Price, Category: category}
			st.Menu = append(st.Menu, item)
		}
		saved = true
		return nil
	})
	if !saved {
		return pos.MenuItem{}, err
	}
	slog.Info("menu item saved", "id", item.ID, "name", item.Name)
	return item, err
}

// DeleteMenuItem removes a menu item.
func (s *Service) DeleteMenuItem(ctx context.Context, id int64) error {
	const op = "service.delete_menu_item"
	return s.commit(ctx, op, func(st *pos.State) error {
		if _, ok := st.MenuItem(id); !ok {
			return pos.Errorf(pos.ErrCodeNotFound, op, "menu item %d not found", id)
		}
		st.Menu = slices.DeleteFunc(st.Menu, func(m pos.MenuItem) bool { return m.ID == id })
		return nil
	})
}

// AddExpense records an expense. Descriptions must be non-blank and
// amounts positive.
func (s *Service) AddExpense(ctx context.Context, description string, amount decimal.Decimal, category string) (pos.Expense, error) {
	const op = "service.add_expense"
	clock, date := s.stamp()

	description = strings.TrimSpace(description)
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultExpenseCategory
	}

	var exp pos.Expense
	created := false
	err := s.commit(ctx, op, func(st *pos.State) error {
		if description == "" {
			return pos.Errorf(pos.ErrCodeValidation, op, "description is required")
		}
		if !amount.IsPositive() {
			return pos.Errorf(pos.ErrCodeValidation, op, "amount must be positive, got %s", amount)
		}
		exp = pos.Expense{
			ID:          s.ids.Next(),
			Description: description,
			Amount:      amount,
			Category:    category,
			Timestamp:   clock,
			Date:        date,
		}
		st.Expenses = append(st.Expenses, exp)
		created = true
		return nil
	})
	if !created {
		return pos.Expense{}, err
	}
	slog.Info("expense added", "id", exp.ID, "amount", pos.FormatMoney(exp.Amount))
	return exp, err
}

// DeleteExpense removes an expense.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	const op = "service.delete_expense"
	return s.commit(ctx, op, func(st *pos.State) error {
		if !slices.ContainsFunc(st.Expenses, func(e pos.Expense) bool { return e.ID == id }) {
			return pos.Errorf(pos.ErrCodeNotFound, op, "expense %d not found", id)
		}
		st.Expenses = slices.DeleteFunc(st.Expenses, func(e pos.Expense) bool { return e.ID == id })
		return nil
	})
}
