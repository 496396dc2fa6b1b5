package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/possync/internal/engine"
	"github.com/roach88/possync/internal/pos"
	"github.com/roach88/possync/internal/sheets"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		buf.Write(formatEvents(e.Trace))
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(ctx context.Context, h *Harness, assertions []Assertion, result *Result) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(ctx, h, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

// matches reports whether event is the op or remote call an assertion names.
func matches(event TraceEvent, a Assertion) bool {
	if a.Call != "" {
		return event.Type == EventRemote && event.Call == a.Call
	}
	return event.Type == EventOp && event.Op == a.Op && subsetMatch(event.Args, a.Args)
}

func describe(a Assertion) string {
	if a.Call != "" {
		return fmt.Sprintf("remote call %q", a.Call)
	}
	if len(a.Args) > 0 {
		return fmt.Sprintf("op %s with args %v", a.Op, a.Args)
	}
	return "op " + a.Op
}

// assertTraceContains checks that some event matches the op (with args as a
// subset) or the remote call.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if matches(event, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of the sequence entries
// appear in order. An entry names an op or a remote call. Entries need not
// be consecutive.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		key := event.Op
		if event.Type == EventRemote {
			key = event.Call
		}
		if _, seen := positions[key]; !seen {
			positions[key] = i + 1
		}
	}

	for _, want := range a.Sequence {
		if positions[want] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all entries present: %v", a.Sequence),
				Actual:   fmt.Sprintf("missing: %s", want),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Sequence); i++ {
		prev, curr := a.Sequence[i-1], a.Sequence[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("entries in order: %v", a.Sequence),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the op or remote call appears exactly Count
// times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState selects the records of one collection matching Where and
// checks their number against Records and their fields against Expect.
func assertFinalState(ctx context.Context, h *Harness, a Assertion) error {
	snap, err := h.snapshotFrom(ctx, a.Client, a.Source)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}
	records, err := collectionRecords(snap, pos.Collection(a.Collection))
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}

	var selected []map[string]any
	for _, r := range records {
		if subsetMatch(r, a.Where) {
			selected = append(selected, r)
		}
	}

	where := fmt.Sprintf("%s where %v", a.Collection, a.Where)
	if a.Records != nil && len(selected) != *a.Records {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%d records in %s", *a.Records, where),
			Actual:   fmt.Sprintf("%d records", len(selected)),
		}
	}
	if len(a.Expect) == 0 {
		return nil
	}
	if len(selected) == 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("a record in %s", where),
			Actual:   "no matching records",
		}
	}
	for _, r := range selected {
		if !subsetMatch(r, a.Expect) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s to have %v", where, a.Expect),
				Actual:   fmt.Sprintf("%v", r),
			}
		}
	}
	return nil
}

// snapshotFrom reads a client's engine state or saved snapshot, or the
// shared remote.
func (h *Harness) snapshotFrom(ctx context.Context, clientName, source string) (pos.Snapshot, error) {
	c := h.client(clientName)
	switch source {
	case "", SourceState:
		return c.eng.Snapshot().Snapshot, nil
	case SourceSaved:
		snap, ok, err := c.local.LoadSnapshot(ctx)
		if err != nil {
			return pos.Snapshot{}, err
		}
		if !ok {
			return pos.Snapshot{}, fmt.Errorf("client %s has no saved snapshot", c.name)
		}
		return snap, nil
	case SourceRemote:
		var remote engine.Remote = sheets.NewAdapter(h.mem, pos.DefaultCollectionNames())
		var snap pos.Snapshot
		var err error
		if snap.Tables, err = remote.ReadTables(ctx); err != nil {
			return snap, err
		}
		if snap.Menu, err = remote.ReadMenu(ctx); err != nil {
			return snap, err
		}
		if snap.Tickets, err = remote.ReadTickets(ctx); err != nil {
			return snap, err
		}
		if snap.Transactions, err = remote.ReadTransactions(ctx); err != nil {
			return snap, err
		}
		if snap.Expenses, err = remote.ReadExpenses(ctx); err != nil {
			return snap, err
		}
		return snap, nil
	}
	return pos.Snapshot{}, fmt.Errorf("unknown source %q", source)
}

// collectionRecords renders one collection as generic records, the shape
// it has in JSON. Numbers, money included, decode as json.Number.
func collectionRecords(snap pos.Snapshot, c pos.Collection) ([]map[string]any, error) {
	var v any
	switch c {
	case pos.CollectionTables:
		v = snap.Tables
	case pos.CollectionMenu:
		v = snap.Menu
	case pos.CollectionOrders:
		v = snap.Tickets
	case pos.CollectionTransactions:
		v = snap.Transactions
	case pos.CollectionExpenses:
		v = snap.Expenses
	default:
		return nil, fmt.Errorf("unknown collection %q", c)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// subsetMatch reports whether every key of want is present in got with an
// equal value.
func subsetMatch(got, want map[string]any) bool {
	for k, w := range want {
		g, ok := got[k]
		if !ok || !valuesEqual(g, w) {
			return false
		}
	}
	return true
}

// valuesEqual compares a decoded value against a YAML-written expectation.
// Numbers compare by value whatever their spelling ("60.00" equals 60),
// lists compare element-wise, maps compare as subsets.
func valuesEqual(got, want any) bool {
	switch w := want.(type) {
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !valuesEqual(g[i], w[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		g, ok := got.(map[string]any)
		return ok && subsetMatch(g, w)
	case nil:
		return got == nil
	}

	gs, ws := fmt.Sprint(got), fmt.Sprint(want)
	if gs == ws {
		return true
	}
	gd, gerr := decimal.NewFromString(gs)
	wd, werr := decimal.NewFromString(ws)
	return gerr == nil && werr == nil && gd.Equal(wd)
}

// formatEvents renders a trace one event per line. Op lines carry the step,
// client, op, sorted args and outcome; remote calls are indented under the
// op that made them.
func formatEvents(trace []TraceEvent) []byte {
	var buf bytes.Buffer
	for _, ev := range trace {
		if ev.Type == EventRemote {
			fmt.Fprintf(&buf, "    %s\n", ev.Call)
			continue
		}
		fmt.Fprintf(&buf, "%d %s %s", ev.Step, ev.Client, ev.Op)
		if len(ev.Args) > 0 {
			keys := make([]string, 0, len(ev.Args))
			for k := range ev.Args {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, len(keys))
			for i, k := range keys {
				parts[i] = fmt.Sprintf("%s=%v", k, ev.Args[k])
			}
			fmt.Fprintf(&buf, " {%s}", strings.Join(parts, " "))
		}
		fmt.Fprintf(&buf, " -> %s", ev.Outcome)
		if ev.Changed != nil {
			fmt.Fprintf(&buf, " changed=%t", *ev.Changed)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
