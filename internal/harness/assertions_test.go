package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func sampleTrace() []TraceEvent {
	r := NewResult()
	r.addOp(0, "a", "select_table", map[string]any{"table": 5}, "ok", nil)
	r.addOp(1, "a", "submit_order", nil, "ok", nil)
	r.addRemote(1, "a", "clear Tables!A:Z")
	r.addRemote(1, "a", "append Tables!A1 rows=11")
	r.addOp(2, "b", "pull", nil, "ok", boolPtr(true))
	r.addRemote(2, "b", "get Tables")
	r.addRemote(2, "b", "get Orders")
	return r.Trace
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Op: "select_table", Args: map[string]any{"table": 5}}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Call: "get Orders"}))

	err := assertTraceContains(trace, Assertion{Op: "select_table", Args: map[string]any{"table": 6}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in trace")
	assert.Contains(t, err.Error(), "0 a select_table {table=5} -> ok")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Sequence: []string{"select_table", "clear Tables!A:Z", "pull", "get Orders"}}))

	err := assertTraceOrder(trace, Assertion{Sequence: []string{"pull", "submit_order"}})
	assert.ErrorContains(t, err, "pull (pos 5) should be before submit_order (pos 2)")

	err = assertTraceOrder(trace, Assertion{Sequence: []string{"pay"}})
	assert.ErrorContains(t, err, "missing: pay")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Call: "get Tables", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: "pay", Count: 0}))
	assert.ErrorContains(t, assertTraceCount(trace, Assertion{Op: "pull", Count: 2}), "1 occurrences")
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		got  any
		want any
		eq   bool
	}{
		{"same string", "vacant", "vacant", true},
		{"different string", "vacant", "occupied", false},
		{"decimal spellings", "200", "200.00", true},
		{"json number vs int", json.Number("1002"), 1002, true},
		{"decimal vs float", "45.5", 45.5, true},
		{"different amounts", "79.99", "79.98", false},
		{"empty lists", []any{}, []any{}, true},
		{"list length", []any{"a"}, []any{}, false},
		{"list of subset maps", []any{map[string]any{"id": json.Number("2"), "name": "Chowmein"}}, []any{map[string]any{"id": 2}}, true},
		{"nil want", nil, nil, true},
		{"nil want non-nil got", "x", nil, false},
		{"map against scalar", "x", map[string]any{"a": 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.eq, valuesEqual(tt.got, tt.want))
		})
	}
}

func TestFormatTrace(t *testing.T) {
	want := "# sample\n" +
		"0 a select_table {table=5} -> ok\n" +
		"1 a submit_order -> ok\n" +
		"    clear Tables!A:Z\n" +
		"    append Tables!A1 rows=11\n" +
		"2 b pull -> ok changed=true\n" +
		"    get Tables\n" +
		"    get Orders\n"
	assert.Equal(t, want, string(FormatTrace("sample", sampleTrace())))
}
