package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/possync/internal/pos"
	"github.com/roach88/possync/internal/service"
)

// OrderView is a table's order with its display totals.
type OrderView struct {
	Table  int             `json:"table"`
	Status pos.TableStatus `json:"status"`
	Lines  []pos.OrderLine `json:"lines"`
	Totals pos.Totals      `json:"totals"`
}

func orderView(a *app, number int) (OrderView, error) {
	snap := a.eng.Snapshot()
	t, ok := snap.Table(number)
	if !ok {
		return OrderView{}, pos.Errorf(pos.ErrCodeNotFound, "cli.order", "table %d not found", number)
	}
	return OrderView{Table: t.Number, Status: t.Status, Lines: t.Orders, Totals: pos.OrderTotals(t.Orders)}, nil
}

func (v OrderView) String() string {
	rows := make([]string, len(v.Lines))
	for i, l := range v.Lines {
		rows[i] = fmt.Sprintf("%d\t%s\t%d\t%s", l.ID, l.Name, l.Quantity, pos.FormatMoney(pos.LineTotal(l)))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Table %d (%s)\n", v.Table, v.Status)
	b.WriteString(table("ID\tITEM\tQTY\tAMOUNT", rows))
	fmt.Fprintf(&b, "\nSubtotal %s  Tax %s  Total %s",
		pos.FormatMoney(v.Totals.Subtotal), pos.FormatMoney(v.Totals.Tax), pos.FormatMoney(v.Totals.Total))
	return b.String()
}

// draftCommand selects a table, applies edit to its draft and shows the
// result. The debounced Tables push is flushed when the app closes.
func draftCommand(opts *RootOptions, use, short string, nargs int, edit func(ctx context.Context, svc *service.Service, ids []int64) error) *cobra.Command {
	return leafCommand(use, short, cobra.MinimumNArgs(nargs),
		func(cmd *cobra.Command, args []string) error {
			number, err := parseID("table number", args[0])
			if err != nil {
				return err
			}
			ids := make([]int64, 0, len(args)-1)
			for _, s := range args[1:] {
				id, err := parseID("argument", s)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				if err := a.svc.SelectTable(int(number)); err != nil {
					return f.Fail("select table", err)
				}
				if err := edit(cmd.Context(), a.svc, ids); err != nil {
					return f.Fail("edit order", err)
				}
				v, err := orderView(a, int(number))
				if err != nil {
					return f.Fail("show order", err)
				}
				return f.Success(v, v.String())
			})
		})
}

// NewOrderCommand creates the order command group.
func NewOrderCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "order", Short: "Edit and submit table orders"}

	cmd.AddCommand(leafCommand("show <table>", "Show a table's order and totals", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			number, err := parseID("table number", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				v, err := orderView(a, int(number))
				if err != nil {
					return f.Fail("show order", err)
				}
				return f.Success(v, v.String())
			})
		}))

	cmd.AddCommand(draftCommand(opts, "add <table> <item-id>...", "Add one unit of each item", 2,
		func(ctx context.Context, svc *service.Service, ids []int64) error {
			for _, id := range ids {
				if err := svc.AddItem(ctx, id); err != nil {
					return err
				}
			}
			return nil
		}))

	qty := draftCommand(opts, "qty <table> <item-id> <delta>", "Change an item's quantity by delta", 3,
		func(ctx context.Context, svc *service.Service, ids []int64) error {
			return svc.UpdateQuantity(ctx, ids[0], int(ids[1]))
		})
	qty.Args = cobra.ExactArgs(3)
	qty.Example = "  possync order qty 4 2 -- -1"
	cmd.AddCommand(qty)

	remove := draftCommand(opts, "remove <table> <item-id>", "Remove an item from the order", 2,
		func(ctx context.Context, svc *service.Service, ids []int64) error {
			return svc.RemoveItem(ctx, ids[0])
		})
	remove.Args = cobra.ExactArgs(2)
	cmd.AddCommand(remove)

	clearCmd := draftCommand(opts, "clear <table>", "Remove every item from the order", 1,
		func(ctx context.Context, svc *service.Service, _ []int64) error {
			return svc.ClearOrder(ctx)
		})
	clearCmd.Args = cobra.ExactArgs(1)
	cmd.AddCommand(clearCmd)

	cmd.AddCommand(leafCommand("submit <table> [item-id...]", "Send the order to the kitchen", cobra.MinimumNArgs(1),
		func(cmd *cobra.Command, args []string) error {
			number, err := parseID("table number", args[0])
			if err != nil {
				return err
			}
			items := make([]int64, 0, len(args)-1)
			for _, s := range args[1:] {
				id, err := parseID("menu item id", s)
				if err != nil {
					return err
				}
				items = append(items, id)
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				ctx := cmd.Context()
				if err := a.svc.SelectTable(int(number)); err != nil {
					return f.Fail("select table", err)
				}
				for _, id := range items {
					if err := a.svc.AddItem(ctx, id); err != nil {
						return f.Fail("add item", err)
					}
				}
				ticket, err := a.svc.SubmitOrder(ctx)
				if ticket.ID == 0 {
					return f.Fail("submit order", err)
				}
				text := fmt.Sprintf("Ticket %d sent to the kitchen for table %d.", ticket.ID, ticket.TableNumber)
				if err != nil {
					text += "\nSaved locally; spreadsheet push failed: " + err.Error()
				}
				return f.Success(ticket, text)
			})
		}))
	return cmd
}

// NewTicketCommand creates the kitchen ticket command group.
func NewTicketCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "ticket", Short: "Kitchen display: list tickets and mark them ready"}

	cmd.AddCommand(leafCommand("list", "List active kitchen tickets", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				tickets := a.eng.Snapshot().Tickets
				rows := make([]string, len(tickets))
				for i, k := range tickets {
					rows[i] = fmt.Sprintf("%d\t%d\t%s\t%s\t%s", k.ID, k.TableNumber, k.Status, k.Timestamp, lineSummary(k.Items))
				}
				return f.Success(tickets, table("TICKET\tTABLE\tSTATUS\tTIME\tITEMS", rows))
			})
		}))

	cmd.AddCommand(leafCommand("ready <ticket-id>", "Mark a pending ticket ready", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			id, err := parseID("ticket id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				if err := a.svc.MarkTicketReady(cmd.Context(), id); err != nil {
					return f.Fail("mark ticket ready", err)
				}
				return f.Success(map[string]int64{"ready": id}, fmt.Sprintf("Ticket %d is ready.", id))
			})
		}))
	return cmd
}

// NewPayCommand creates the pay command.
func NewPayCommand(opts *RootOptions) *cobra.Command {
	var method, cash, qr string
	cmd := leafCommand("pay <table>", "Settle a table's bill", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			number, err := parseID("table number", args[0])
			if err != nil {
				return err
			}
			p := service.Payment{Table: int(number), Method: pos.PaymentMethod(method)}
			if p.Method == pos.PayBoth {
				if p.Cash, err = parseMoney("cash amount", cash); err != nil {
					return err
				}
				if p.QR, err = parseMoney("QR amount", qr); err != nil {
					return err
				}
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				tx, err := a.svc.ProcessPayment(cmd.Context(), p)
				if tx.ID == 0 {
					return f.Fail("payment", err)
				}
				text := fmt.Sprintf("Table %d paid %s by %s (cash %s, QR %s).", tx.TableNumber,
					pos.FormatMoney(tx.Total), tx.PaymentMethod, pos.FormatMoney(tx.CashAmount), pos.FormatMoney(tx.QRAmount))
				if err != nil {
					text += "\nSaved locally; spreadsheet push failed: " + err.Error()
				}
				return f.Success(tx, text)
			})
		})
	cmd.Flags().StringVarP(&method, "method", "m", string(pos.PayCash), "payment method (Cash|QR|Both)")
	cmd.Flags().StringVar(&cash, "cash", "0", "cash amount for --method Both")
	cmd.Flags().StringVar(&qr, "qr", "0", "QR amount for --method Both")
	return cmd
}
