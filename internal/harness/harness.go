package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/possync/internal/engine"
	"github.com/roach88/possync/internal/pos"
	"github.com/roach88/possync/internal/service"
	"github.com/roach88/possync/internal/sheets"
	"github.com/roach88/possync/internal/store"
	"github.com/roach88/possync/internal/testutil"
)

// RemoteTitle is the title of the shared in-memory spreadsheet.
const RemoteTitle = "Scenario Restaurant"

// client is one simulated device.
type client struct {
	name  string
	local *store.Store
	eng   *engine.Engine
	svc   *service.Service
}

// Harness holds the shared remote, the clock and the clients of one run.
type Harness struct {
	mem     *sheets.Memory
	clock   *testutil.FakeClock
	clients map[string]*client
	order   []string
}

// Run executes a scenario and returns its result. Step outcomes that differ
// from their expect clause and failed assertions are reported in
// Result.Errors; the returned error is reserved for setup failures.
//
// Execution flow:
// 1. Build the shared remote and preload its sheets
// 2. Create and load every client in declaration order
// 3. Execute steps, tracing each outcome and the remote calls it made
// 4. Evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := newHarness(ctx, scenario)
	if err != nil {
		return nil, err
	}
	defer h.close()

	result := NewResult()
	for i, step := range scenario.Steps {
		h.execute(ctx, i, step, result)
	}

	for _, msg := range EvaluateAssertions(ctx, h, scenario.Assertions, result) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario) (*Harness, error) {
	h := &Harness{
		mem:     sheets.NewMemory(RemoteTitle),
		clock:   testutil.NewFakeClock(testutil.Epoch),
		clients: make(map[string]*client, len(scenario.Clients)),
		order:   slices.Clone(scenario.Clients),
	}
	for sheet, rows := range scenario.Remote {
		h.mem.Put(sheet, rows)
	}

	factory := func(_ context.Context, cfg pos.SyncConfig) (engine.Remote, error) {
		return sheets.NewAdapter(h.mem, cfg.Collections), nil
	}

	for i, name := range scenario.Clients {
		local, err := store.Open(":memory:")
		if err != nil {
			h.close()
			return nil, fmt.Errorf("failed to create store for client %s: %w", name, err)
		}
		if !scenario.Unconfigured {
			if err := local.SaveSettings(ctx, testutil.Settings()); err != nil {
				local.Close()
				h.close()
				return nil, fmt.Errorf("failed to save settings for client %s: %w", name, err)
			}
		}

		eng := engine.New(local, factory,
			engine.WithClock(h.clock.Now),
			engine.WithClientID(name),
			engine.WithPollInterval(0),
			engine.WithDebounce(time.Hour),
		)
		ids := pos.NewSequenceIDs(int64(i+1) * 1000)
		svc := service.New(eng, ids, service.WithClock(h.clock.Now))
		h.clients[name] = &client{name: name, local: local, eng: eng, svc: svc}

		// An unreachable remote still leaves a usable state.
		if _, err := eng.Load(ctx); err != nil && !pos.IsConfigMissing(err) {
			h.close()
			return nil, fmt.Errorf("failed to load client %s: %w", name, err)
		}
	}
	h.mem.ResetLog()
	return h, nil
}

func (h *Harness) close() {
	for _, c := range h.clients {
		c.local.Close()
	}
}

func (h *Harness) client(name string) *client {
	if name == "" {
		name = h.order[0]
	}
	return h.clients[name]
}

// execute runs one step and records it, plus every remote call it made.
func (h *Harness) execute(ctx context.Context, index int, step Step, result *Result) {
	c := h.client(step.Client)
	before := len(h.mem.Log())

	changed, err := ops[step.Op](ctx, h, c, step.Args)

	outcome := "ok"
	if err != nil {
		outcome = string(pos.CodeOf(err))
		if outcome == "" {
			outcome = "ERROR"
		}
	}
	result.addOp(index, c.name, step.Op, step.Args, outcome, changed)
	for _, call := range h.mem.Log()[before:] {
		result.addRemote(index, c.name, call)
	}

	checkExpect(index, step, outcome, changed, err, result)
}

func checkExpect(index int, step Step, outcome string, changed *bool, err error, result *Result) {
	want := "ok"
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if outcome != want {
		msg := fmt.Sprintf("step %d (%s): expected %s, got %s", index, step.Op, want, outcome)
		if err != nil {
			msg += ": " + err.Error()
		}
		result.AddError(msg)
	}
	if step.Expect == nil || step.Expect.Changed == nil {
		return
	}
	if changed == nil {
		result.AddError(fmt.Sprintf("step %d (%s): changed is not reported by this op", index, step.Op))
		return
	}
	if *changed != *step.Expect.Changed {
		result.AddError(fmt.Sprintf("step %d (%s): expected changed=%t, got %t",
			index, step.Op, *step.Expect.Changed, *changed))
	}
}

type opFunc func(ctx context.Context, h *Harness, c *client, args map[string]any) (*bool, error)

// ops maps step op names onto client operations.
var ops map[string]opFunc

func init() {
	ops = map[string]opFunc{
		"load": func(ctx context.Context, _ *Harness, c *client, _ map[string]any) (*bool, error) {
			_, err := c.eng.Load(ctx)
			return nil, err
		},
		"select_table": func(_ context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
			n, err := argInt(args, "table")
			if err != nil {
				return nil, err
			}
			return nil, c.svc.SelectTable(int(n))
		},
		"deselect": func(_ context.Context, _ *Harness, c *client, _ map[string]any) (*bool, error) {
			c.svc.Deselect()
			return nil, nil
		},
		"add_item": func(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
			id, err := argInt(args, "item")
			if err != nil {
				return nil, err
			}
			return nil, c.svc.AddItem(ctx, id)
		},
		"update_quantity": func(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
			id, err := argInt(args, "item")
			if err != nil {
				return nil, err
			}
			delta, err := argInt(args, "delta")
			if err != nil {
				return nil, err
			}
			return nil, c.svc.UpdateQuantity(ctx, id, int(delta))
		},
		"remove_item": func(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
			id, err := argInt(args, "item")
			if err != nil {
				return nil, err
			}
			return nil, c.svc.RemoveItem(ctx, id)
		},
		"clear_order": func(ctx context.Context, _ *Harness, c *client, _ map[string]any) (*bool, error) {
			return nil, c.svc.ClearOrder(ctx)
		},
		"submit_order": func(ctx context.Context, _ *Harness, c *client, _ map[string]any) (*bool, error) {
			_, err := c.svc.SubmitOrder(ctx)
			return nil, err
		},
		"ticket_ready": func(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
			id, err := argInt(args, "ticket")
			if err != nil {
				return nil, err
			}
			return nil, c.svc.MarkTicketReady(ctx, id)
		},
		"pay": pay,
		"add_table": func(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
			n, err := argInt(args, "table")
			if err != nil {
				return nil, err
			}
			_, err = c.svc.AddTable(ctx, int(n))
			return nil, err
		},
		"delete_table": func(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
			n, err := argInt(args, "table")
			if err != nil {
				return nil, err
			}
			return nil, c.svc.DeleteTable(ctx, int(n))
		},
		"save_menu_item": saveMenuItem,
		"delete_menu_item": func(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
			id, err := argInt(args, "item")
			if err != nil {
				return nil, err
			}
			return nil, c.svc.DeleteMenuItem(ctx, id)
		},
		"add_expense": func(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
			amount, err := argDecimal(args, "amount")
			if err != nil {
				return nil, err
			}
			_, err = c.svc.AddExpense(ctx, argString(args, "description"), amount, argString(args, "category"))
			return nil, err
		},
		"delete_expense": func(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
			id, err := argInt(args, "expense")
			if err != nil {
				return nil, err
			}
			return nil, c.svc.DeleteExpense(ctx, id)
		},
		"push": func(ctx context.Context, _ *Harness, c *client, _ map[string]any) (*bool, error) {
			return nil, c.eng.PushAll(ctx)
		},
		"pull": func(ctx context.Context, _ *Harness, c *client, _ map[string]any) (*bool, error) {
			changed, err := c.eng.PullDelta(ctx)
			return &changed, err
		},
		"refresh": func(ctx context.Context, _ *Harness, c *client, _ map[string]any) (*bool, error) {
			changed, err := c.eng.Refresh(ctx)
			return &changed, err
		},
		"flush": func(ctx context.Context, _ *Harness, c *client, _ map[string]any) (*bool, error) {
			return nil, c.eng.Flush(ctx)
		},
		"fail_remote": func(_ context.Context, h *Harness, _ *client, args map[string]any) (*bool, error) {
			call := argString(args, "call")
			h.mem.FailWith(call, pos.Errorf(pos.ErrCodeRemoteUnavailable, "sheets."+strings.TrimSpace(call),
				"injected failure"))
			return nil, nil
		},
		"heal_remote": func(_ context.Context, h *Harness, _ *client, _ map[string]any) (*bool, error) {
			h.mem.FailWith("", nil)
			return nil, nil
		},
		"advance": func(_ context.Context, h *Harness, _ *client, args map[string]any) (*bool, error) {
			d, err := time.ParseDuration(argString(args, "by"))
			if err != nil {
				return nil, pos.Errorf(pos.ErrCodeValidation, "harness.advance", "bad duration: %v", err)
			}
			h.clock.Advance(d)
			return nil, nil
		},
	}
}

func pay(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
	table, err := argInt(args, "table")
	if err != nil {
		return nil, err
	}
	p := service.Payment{Table: int(table), Method: pos.PaymentMethod(argString(args, "method"))}
	if _, ok := args["cash"]; ok {
		if p.Cash, err = argDecimal(args, "cash"); err != nil {
			return nil, err
		}
	}
	if _, ok := args["qr"]; ok {
		if p.QR, err = argDecimal(args, "qr"); err != nil {
			return nil, err
		}
	}
	_, err = c.svc.ProcessPayment(ctx, p)
	return nil, err
}

func saveMenuItem(ctx context.Context, _ *Harness, c *client, args map[string]any) (*bool, error) {
	in := service.MenuItemInput{
		Name:     argString(args, "name"),
		Category: argString(args, "category"),
	}
	if _, ok := args["item"]; ok {
		id, err := argInt(args, "item")
		if err != nil {
			return nil, err
		}
		in.ID = id
	}
	price, err := argDecimal(args, "price")
	if err != nil {
		return nil, err
	}
	in.Price = price
	_, err = c.svc.SaveMenuItem(ctx, in)
	return nil, err
}
