package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/possync/internal/pos"
	"github.com/roach88/possync/internal/service"
)

// table renders rows with a header through a tabwriter.
func table(header string, rows []string) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		fmt.Fprintln(tw, r)
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func lineSummary(lines []pos.OrderLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("%dx %s", l.Quantity, l.Name)
	}
	return strings.Join(parts, ", ")
}

func parseMoney(what, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s %q", what, s))
	}
	return d, nil
}

// NewTableCommand creates the table command group.
func NewTableCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "table", Short: "List, add or delete tables"}

	cmd.AddCommand(leafCommand("list", "List tables", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				tables := a.eng.Snapshot().Tables
				rows := make([]string, len(tables))
				for i, t := range tables {
					rows[i] = fmt.Sprintf("%d\t%s\t%s\t%s",
						t.Number, t.Status, pos.FormatMoney(pos.Subtotal(t.Orders)), lineSummary(t.Orders))
				}
				return f.Success(tables, table("TABLE\tSTATUS\tSUBTOTAL\tORDERS", rows))
			})
		}))

	cmd.AddCommand(leafCommand("add <number>", "Add a vacant table", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			n, err := parseID("table number", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				t, err := a.svc.AddTable(cmd.Context(), int(n))
				if err != nil {
					return f.Fail("add table", err)
				}
				return f.Success(t, fmt.Sprintf("Table %d added.", t.Number))
			})
		}))

	cmd.AddCommand(leafCommand("delete <number>", "Delete a vacant table", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			n, err := parseID("table number", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				if err := a.svc.DeleteTable(cmd.Context(), int(n)); err != nil {
					return f.Fail("delete table", err)
				}
				return f.Success(map[string]int64{"deleted": n}, fmt.Sprintf("Table %d deleted.", n))
			})
		}))
	return cmd
}

// NewMenuCommand creates the menu command group.
func NewMenuCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "menu", Short: "List, save or delete menu items"}

	cmd.AddCommand(leafCommand("list", "List menu items", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				menu := a.eng.Snapshot().Menu
				rows := make([]string, len(menu))
				for i, m := range menu {
					rows[i] = fmt.Sprintf("%d\t%s\t%s\t%s", m.ID, m.Name, pos.FormatMoney(m.Price), m.Category)
				}
				return f.Success(menu, table("ID\tNAME\tPRICE\tCATEGORY", rows))
			})
		}))

	var id int64
	var name, price, category string
	save := leafCommand("save", "Create a menu item, or edit one with --id", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			p, err := parseMoney("price", price)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				m, err := a.svc.SaveMenuItem(cmd.Context(), service.MenuItemInput{
					ID: id, Name: name, Price: p, Category: category,
				})
				if err != nil {
					return f.Fail("save menu item", err)
				}
				return f.Success(m, fmt.Sprintf("Saved %s (%d) at %s.", m.Name, m.ID, pos.FormatMoney(m.Price)))
			})
		})
	save.Flags().Int64Var(&id, "id", 0, "item to edit (omit to create)")
	save.Flags().StringVar(&name, "name", "", "item name")
	save.Flags().StringVar(&price, "price", "", "item price")
	save.Flags().StringVar(&category, "category", "", "item category (default "+pos.DefaultCategory+")")
	_ = save.MarkFlagRequired("name")
	_ = save.MarkFlagRequired("price")
	cmd.AddCommand(save)

	cmd.AddCommand(leafCommand("delete <id>", "Delete a menu item", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID("menu item id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				if err := a.svc.DeleteMenuItem(cmd.Context(), itemID); err != nil {
					return f.Fail("delete menu item", err)
				}
				return f.Success(map[string]int64{"deleted": itemID}, fmt.Sprintf("Menu item %d deleted.", itemID))
			})
		}))
	return cmd
}

// NewExpenseCommand creates the expense command group.
func NewExpenseCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "expense", Short: "List, add or delete expenses"}

	cmd.AddCommand(leafCommand("list", "List expenses", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				expenses := a.eng.Snapshot().Expenses
				rows := make([]string, len(expenses))
				for i, e := range expenses {
					rows[i] = fmt.Sprintf("%d\t%s %s\t%s\t%s\t%s",
						e.ID, e.Date, e.Timestamp, e.Description, e.Category, pos.FormatMoney(e.Amount))
				}
				return f.Success(expenses, table("ID\tWHEN\tDESCRIPTION\tCATEGORY\tAMOUNT", rows))
			})
		}))

	var category string
	add := leafCommand("add <description> <amount>", "Record an expense", cobra.ExactArgs(2),
		func(cmd *cobra.Command, args []string) error {
			amount, err := parseMoney("amount", args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				e, err := a.svc.AddExpense(cmd.Context(), args[0], amount, category)
				if err != nil {
					return f.Fail("add expense", err)
				}
				return f.Success(e, fmt.Sprintf("Expense %d recorded: %s %s.", e.ID, e.Description, pos.FormatMoney(e.Amount)))
			})
		})
	add.Flags().StringVar(&category, "category", "", "expense category (default "+service.DefaultExpenseCategory+")")
	cmd.AddCommand(add)

	cmd.AddCommand(leafCommand("delete <id>", "Delete an expense", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			id, err := parseID("expense id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				if err := a.svc.DeleteExpense(cmd.Context(), id); err != nil {
					return f.Fail("delete expense", err)
				}
				return f.Success(map[string]int64{"deleted": id}, fmt.Sprintf("Expense %d deleted.", id))
			})
		}))
	return cmd
}
