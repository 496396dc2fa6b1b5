package sheets

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/possync/internal/pos"
)

// Memory is an in-process ValueStore. Several clients may share one Memory
// to model a shared remote spreadsheet. Every call is appended to the
// operation log.
type Memory struct {
	mu     sync.Mutex
	title  string
	sheets map[string][][]string
	log    []string

	// Hook runs before every call with the operation name ("get", "clear",
	// "append", "title") and range. A non-nil return fails the call.
	Hook func(op, rng string) error
}

// NewMemory returns an empty store titled title.
func NewMemory(title string) *Memory {
	return &Memory{title: title, sheets: make(map[string][][]string)}
}

func (m *Memory) before(op, rng string) error {
	m.mu.Lock()
	hook := m.Hook
	m.mu.Unlock()
	if hook != nil {
		return hook(op, rng)
	}
	return nil
}

func (m *Memory) record(line string) {
	m.log = append(m.log, line)
}

func (m *Memory) Get(ctx context.Context, rng string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, pos.Wrap(pos.ErrCodeRemoteUnavailable, "sheets.get", err)
	}
	if err := m.before("get", rng); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("get " + rng)
	rows := m.sheets[SheetOf(rng)]
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (m *Memory) Clear(ctx context.Context, rng string) error {
	if err := ctx.Err(); err != nil {
		return pos.Wrap(pos.ErrCodeRemoteUnavailable, "sheets.clear", err)
	}
	if err := m.before("clear", rng); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("clear " + rng)
	m.sheets[SheetOf(rng)] = nil
	return nil
}

func (m *Memory) Append(ctx context.Context, rng string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return pos.Wrap(pos.ErrCodeRemoteUnavailable, "sheets.append", err)
	}
	if err := m.before("append", rng); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("append %s rows=%d", rng, len(rows)))
	sheet := SheetOf(rng)
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = fmt.Sprint(c)
		}
		m.sheets[sheet] = append(m.sheets[sheet], cells)
	}
	return nil
}

func (m *Memory) Title(ctx context.Context) (string, error) {
	if err := m.before("title", ""); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("title")
	return m.title, nil
}

// Put replaces a sheet's cells directly, bypassing the log. Tests use it to
// play the part of another client or a human editing the sheet.
func (m *Memory) Put(sheet string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet] = rows
}

// Sheet returns a copy of a sheet's cells.
func (m *Memory) Sheet(sheet string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.sheets[sheet]))
	for i, r := range m.sheets[sheet] {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Log returns the operations recorded so far.
func (m *Memory) Log() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.log...)
}

// ResetLog empties the operation log.
func (m *Memory) ResetLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = nil
}

// FailWith makes every call matching op fail with err until cleared with
// FailWith(op, nil). An empty op matches all calls.
func (m *Memory) FailWith(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.Hook = nil
		return
	}
	m.Hook = func(got, _ string) error {
		if op == "" || op == got {
			return err
		}
		return nil
	}
}
