package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/roach88/possync/internal/pos"
)

// SelectTable starts editing a table: its current orders become the draft.
func (s *Service) SelectTable(number int) error {
	return s.eng.Update(func(st *pos.State) error {
		t, ok := st.Table(number)
		if !ok {
			return pos.Errorf(pos.ErrCodeNotFound, "service.select", "table %d not found", number)
		}
		st.SelectedTable = number
		st.CurrentOrder = pos.CloneLines(t.Orders)
		return nil
	})
}

// Deselect leaves the selected table. The draft is dropped; whatever was
// already mirrored into the table stays.
func (s *Service) Deselect() {
	_ = s.eng.Update(func(st *pos.State) error {
		st.Deselect()
		return nil
	})
}

// AddItem adds one unit of a menu item to the draft.
func (s *Service) AddItem(ctx context.Context, menuID int64) error {
	return s.edit(ctx, func(st *pos.State) error {
		item, ok := st.MenuItem(menuID)
		if !ok {
			return pos.Errorf(pos.ErrCodeNotFound, "service.add_item", "menu item %d not found", menuID)
		}
		if i := lineIndex(st.CurrentOrder, menuID); i >= 0 {
			st.CurrentOrder[i].Quantity++
			return nil
		}
		st.CurrentOrder = append(st.CurrentOrder, item.Line())
		return nil
	})
}

// UpdateQuantity adjusts a draft line by delta. A line reaching zero or
// below is removed.
func (s *Service) UpdateQuantity(ctx context.Context, menuID int64, delta int) error {
	return s.edit(ctx, func(st *pos.State) error {
		i := lineIndex(st.CurrentOrder, menuID)
		if i < 0 {
			return pos.Errorf(pos.ErrCodeNotFound, "service.update_quantity", "item %d is not in the order", menuID)
		}
		st.CurrentOrder[i].Quantity += delta
		if st.CurrentOrder[i].Quantity <= 0 {
			st.CurrentOrder = slices.Delete(st.CurrentOrder, i, i+1)
		}
		return nil
	})
}

// RemoveItem drops a line from the draft.
func (s *Service) RemoveItem(ctx context.Context, menuID int64) error {
	return s.edit(ctx, func(st *pos.State) error {
		i := lineIndex(st.CurrentOrder, menuID)
		if i < 0 {
			return pos.Errorf(pos.ErrCodeNotFound, "service.remove_item", "item %d is not in the order", menuID)
		}
		st.CurrentOrder = slices.Delete(st.CurrentOrder, i, i+1)
		return nil
	})
}

// ClearOrder empties the draft, which vacates the selected table.
func (s *Service) ClearOrder(ctx context.Context) error {
	return s.edit(ctx, func(st *pos.State) error {
		st.CurrentOrder = []pos.OrderLine{}
		return nil
	})
}

func lineIndex(lines []pos.OrderLine, menuID int64) int {
	return slices.IndexFunc(lines, func(l pos.OrderLine) bool { return l.ID == menuID })
}

// SubmitOrder sends the draft of the selected table to the kitchen as a
// pending ticket, leaves the table occupied with those lines and ends the
// selection.
func (s *Service) SubmitOrder(ctx context.Context) (pos.KitchenTicket, error) {
	const op = "service.submit_order"
	clock, _ := s.stamp()

	var ticket pos.KitchenTicket
	created := false
	err := s.commit(ctx, op, func(st *pos.State) error {
		if st.SelectedTable == 0 || len(st.CurrentOrder) == 0 {
			return pos.Errorf(pos.ErrCodeValidation, op, "select a table and add items")
		}
		t, ok := st.Table(st.SelectedTable)
		if !ok {
			return pos.Errorf(pos.ErrCodeNotFound, op, "table %d not found", st.SelectedTable)
		}
		ticket = pos.KitchenTicket{
			ID:          s.ids.Next(),
			TableNumber: t.Number,
			Items:       pos.CloneLines(st.CurrentOrder),
			Status:      pos.TicketPending,
			Timestamp:   clock,
		}
		st.Tickets = append(st.Tickets, ticket)
		t.SetOrders(st.CurrentOrder)
		st.Deselect()
		created = true
		return nil
	})
	if !created {
		return pos.KitchenTicket{}, err
	}
	slog.Info("order submitted", "table", ticket.TableNumber, "ticket", ticket.ID, "lines", len(ticket.Items))
	return ticket, err
}

// MarkTicketReady moves a pending ticket to ready. Marking a ready ticket
// again changes nothing and pushes nothing.
func (s *Service) MarkTicketReady(ctx context.Context, id int64) error {
	const op = "service.ticket_ready"

	changed := false
	err := s.eng.Update(func(st *pos.State) error {
		k, ok := st.Ticket(id)
		if !ok {
			return pos.Errorf(pos.ErrCodeNotFound, op, "ticket %d not found", id)
		}
		if k.Status == pos.TicketPending {
			k.Status = pos.TicketReady
			changed = true
		}
		return nil
	})
	if err != nil || !changed {
		return err
	}
	slog.Info("ticket ready", "ticket", id)
	return s.eng.Commit(ctx)
}
