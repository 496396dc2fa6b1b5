package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/possync/internal/pos"
)

func TestStatus_Unconfigured(t *testing.T) {
	r := newCLIRig(t)

	out := r.mustRun("--format", "json", "status")
	var resp struct {
		Status string     `json:"status"`
		Data   StatusView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Data.Configured)
	assert.False(t, resp.Data.Connected)
	assert.Equal(t, "defaults", resp.Data.Source)
	assert.Empty(t, r.mem.Log())
}

func TestSync_Unconfigured(t *testing.T) {
	r := newCLIRig(t)

	out, err := r.run("sync")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [CONFIG_MISSING]")
}

func TestSettings_SetShowAndTest(t *testing.T) {
	r := newCLIRig(t)

	out := r.mustRun("settings", "set", "--sheet-id", "sheet-123", "--api-key", "key-abcd1234")
	assert.Contains(t, out, "Settings saved. Loaded data from remote.")
	assert.Equal(t, []string{"get Tables", "get Menu", "get Orders", "get Transactions", "get Expenses"}, r.mem.Log())

	out = r.mustRun("settings", "show")
	assert.Contains(t, out, "sheet-123")
	assert.Contains(t, out, "********1234")
	assert.NotContains(t, out, "key-abcd1234")

	out = r.mustRun("settings", "test")
	assert.Equal(t, "Connected to \"Test Restaurant\".\n", out)
}

func TestSettings_SetRequiresCredential(t *testing.T) {
	r := newCLIRig(t)

	out, err := r.run("settings", "set", "--sheet-id", "sheet-123")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [VALIDATION]")
}

func TestOrderLifecycle(t *testing.T) {
	r := newCLIRig(t)
	r.configure()

	out := r.mustRun("order", "add", "5", "1", "1", "7")
	assert.Contains(t, out, "Table 5 (occupied)")
	assert.Contains(t, out, "Subtotal 360.00  Tax 46.80  Total 406.80")
	log := r.mem.Log()
	require.GreaterOrEqual(t, len(log), 2)
	assert.Equal(t, []string{"clear Tables!A:Z", "append Tables!A1 rows=11"}, log[len(log)-2:],
		"closing the command flushes the debounced Tables push")
	r.mem.ResetLog()

	out = r.mustRun("order", "submit", "5")
	assert.Contains(t, out, "sent to the kitchen for table 5.")
	assert.Len(t, r.mem.Sheet("Orders"), 2)

	out = r.mustRun("--format", "json", "ticket", "list")
	var tickets struct {
		Data []pos.KitchenTicket `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &tickets))
	require.Len(t, tickets.Data, 1)
	ticket := tickets.Data[0]
	assert.Equal(t, 5, ticket.TableNumber)
	assert.Equal(t, pos.TicketPending, ticket.Status)
	assert.Len(t, ticket.Items, 2)

	id := jsonID(ticket.ID)
	out = r.mustRun("ticket", "ready", id)
	assert.Equal(t, "Ticket "+id+" is ready.\n", out)

	out = r.mustRun("pay", "5")
	assert.Equal(t, "Table 5 paid 360.00 by Cash (cash 360.00, QR 0.00).\n", out)
	assert.Len(t, r.mem.Sheet("Orders"), 1, "paid tickets leave the Orders sheet")
	assert.Len(t, r.mem.Sheet("Transactions"), 2)

	out = r.mustRun("table", "list")
	assert.Regexp(t, `(?m)^5\s+vacant\s+0\.00`, out)

	out = r.mustRun("report", "summary")
	assert.Contains(t, out, "Rs.360.00")
	assert.Regexp(t, `Total Transactions\s+1`, out)
}

func TestPay_SplitMustMatchTotal(t *testing.T) {
	r := newCLIRig(t)

	r.mustRun("order", "add", "3", "3", "8")

	out, err := r.run("pay", "3", "--method", "Both", "--cash", "120", "--qr", "79.98")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [VALIDATION]")

	out = r.mustRun("pay", "3", "--method", "Both", "--cash", "120", "--qr", "79.99")
	assert.Equal(t, "Table 3 paid 200.00 by Both (cash 120.00, QR 79.99).\n", out)
}

func TestPay_InvalidAmount(t *testing.T) {
	r := newCLIRig(t)

	_, err := r.run("pay", "3", "--method", "Both", "--cash", "lots")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestOrder_Edits(t *testing.T) {
	r := newCLIRig(t)

	r.mustRun("order", "add", "2", "2", "2", "6")
	out := r.mustRun("order", "qty", "2", "2", "--", "-1")
	assert.Regexp(t, `(?m)^2\s+Chowmein\s+1\s+120\.00`, out)

	out = r.mustRun("order", "remove", "2", "6")
	assert.NotContains(t, out, "French Fries")

	out = r.mustRun("order", "clear", "2")
	assert.Contains(t, out, "Table 2 (vacant)")

	_, err := r.run("order", "remove", "2", "6")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestOrder_UnknownTable(t *testing.T) {
	r := newCLIRig(t)

	out, err := r.run("order", "show", "42")
	require.Error(t, err)
	assert.Contains(t, out, "Error [NOT_FOUND]")

	_, err = r.run("order", "show", "four")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCatalogAdmin(t *testing.T) {
	r := newCLIRig(t)

	out := r.mustRun("table", "add", "11")
	assert.Equal(t, "Table 11 added.\n", out)
	_, err := r.run("table", "add", "11")
	require.Error(t, err)

	out = r.mustRun("table", "delete", "11")
	assert.Equal(t, "Table 11 deleted.\n", out)

	out = r.mustRun("menu", "save", "--name", "Lassi", "--price", "90", "--category", "Drink")
	assert.Regexp(t, `^Saved Lassi \(\d+\) at 90\.00\.`, out)

	out = r.mustRun("menu", "list")
	assert.Regexp(t, `Lassi\s+90\.00\s+Drink`, out)

	out = r.mustRun("menu", "delete", "10")
	assert.Equal(t, "Menu item 10 deleted.\n", out)
	out = r.mustRun("menu", "list")
	assert.NotContains(t, out, "Kheer")
}

func TestExpenses(t *testing.T) {
	r := newCLIRig(t)

	out := r.mustRun("expense", "add", "Gas cylinder", "1500", "--category", "Utilities")
	assert.Contains(t, out, "recorded: Gas cylinder 1500.00.")

	out = r.mustRun("expense", "list")
	assert.Regexp(t, `Gas cylinder\s+Utilities\s+1500\.00`, out)

	_, err := r.run("expense", "add", "Nothing", "0")
	require.Error(t, err)

	out = r.mustRun("report", "summary")
	assert.Contains(t, out, "Net Profit  Rs.-1500.00")
}

func TestReportExport(t *testing.T) {
	r := newCLIRig(t)

	_, err := r.run("report", "export", "--out", filepath.Join(r.dir, "empty.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	r.mustRun("expense", "add", "Vegetables", "300")

	path := filepath.Join(r.dir, "report.csv")
	out := r.mustRun("report", "export", "--out", path)
	assert.Equal(t, "Report written to "+path+".\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Vegetables")
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
