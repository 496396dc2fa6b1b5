package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/possync/internal/notify"
	"github.com/roach88/possync/internal/pos"
	"github.com/roach88/possync/internal/sheets"
	"github.com/roach88/possync/internal/store"
	"github.com/roach88/possync/internal/testutil"
)

type testRig struct {
	eng     *Engine
	mem     *sheets.Memory
	local   *store.Store
	clock   *testutil.FakeClock
	changes <-chan notify.Change
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func memoryFactory(mem *sheets.Memory) RemoteFactory {
	return func(_ context.Context, cfg pos.SyncConfig) (Remote, error) {
		return sheets.NewAdapter(mem, cfg.Collections), nil
	}
}

func newRig(t *testing.T, configured bool, opts ...Option) *testRig {
	t.Helper()
	ctx := context.Background()

	mem := sheets.NewMemory("Test Restaurant")
	local := setupTestStore(t)
	if configured {
		require.NoError(t, local.SaveSettings(ctx, testutil.Settings()))
	}
	clock := testutil.NewFakeClock(testutil.Epoch)
	hub := notify.NewHub()
	changes, cancel := hub.Subscribe(64)
	t.Cleanup(cancel)

	base := []Option{
		WithNotifier(hub),
		WithClock(clock.Now),
		WithClientID("client-a"),
		WithPollInterval(0),
		WithDebounce(20 * time.Millisecond),
	}
	eng := New(local, memoryFactory(mem), append(base, opts...)...)
	t.Cleanup(func() { eng.debounce.Cancel() })
	return &testRig{eng: eng, mem: mem, local: local, clock: clock, changes: changes}
}

// loaded returns a rig whose engine has completed Load with a clean log.
func loaded(t *testing.T, configured bool, opts ...Option) *testRig {
	t.Helper()
	r := newRig(t, configured, opts...)
	_, err := r.eng.Load(context.Background())
	if configured {
		require.NoError(t, err)
	}
	r.mem.ResetLog()
	r.drain()
	return r
}

func (r *testRig) drain() []notify.Change {
	var out []notify.Change
	for {
		select {
		case c := <-r.changes:
			out = append(out, c)
		default:
			return out
		}
	}
}

func (r *testRig) count(op string) int {
	n := 0
	for _, l := range r.mem.Log() {
		if l == op {
			n++
		}
	}
	return n
}

// otherClient writes tables through a second adapter on the same sheet.
func (r *testRig) otherClient(t *testing.T, tables []pos.Table) {
	t.Helper()
	a := sheets.NewAdapter(r.mem, pos.DefaultCollectionNames())
	require.NoError(t, a.WriteTables(context.Background(), tables))
	r.mem.ResetLog()
}

func occupy(t *testing.T, e *Engine, number int, qty int) {
	t.Helper()
	require.NoError(t, e.Update(func(s *pos.State) error {
		tbl, ok := s.Table(number)
		require.True(t, ok)
		line := s.Menu[0].Line()
		line.Quantity = qty
		tbl.SetOrders([]pos.OrderLine{line})
		return nil
	}))
}

func TestLoad_SeedsDefaultsFromEmptyRemote(t *testing.T) {
	r := newRig(t, true)

	src, err := r.eng.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, src)

	snap := r.eng.Snapshot()
	require.Len(t, snap.Tables, 10)
	for i, tbl := range snap.Tables {
		assert.Equal(t, i+1, tbl.Number)
		assert.Equal(t, pos.TableVacant, tbl.Status)
	}
	assert.Len(t, snap.Menu, 10)
	assert.Equal(t, []string{
		"get Tables", "get Menu", "get Orders", "get Transactions", "get Expenses",
	}, r.mem.Log())

	st := r.eng.Status()
	assert.True(t, st.Connected)
	require.NotNil(t, st.LastSyncAt)
	assert.Equal(t, "Live", st.Label(r.clock.Now()))
}

func TestLoad_ReadsRemoteCollections(t *testing.T) {
	r := newRig(t, true)
	tables := pos.DefaultTables()[:4]
	tables[3].SetOrders([]pos.OrderLine{pos.DefaultMenu()[1].Line()})
	r.otherClient(t, tables)
	r.mem.Put("Orders", [][]string{
		{"ID", "TableNumber", "Items", "Status", "Timestamp"},
		{"9", "4", "[]", "ready", "7:00:00 PM"},
		{"10", "4", "[]", "completed", "7:01:00 PM"},
	})

	_, err := r.eng.Load(context.Background())
	require.NoError(t, err)

	snap := r.eng.Snapshot()
	assert.Len(t, snap.Tables, 4)
	assert.Equal(t, pos.TableOccupied, snap.Tables[3].Status)
	require.Len(t, snap.Tickets, 1)
	assert.Equal(t, pos.TicketReady, snap.Tickets[0].Status)
	assert.Len(t, snap.Menu, 10, "empty remote menu seeds defaults")

	saved, ok, err := r.local.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, saved.Tables, 4)
}

func TestLoad_FallsBackToLocalSnapshot(t *testing.T) {
	r := newRig(t, true)
	snap := pos.DefaultSnapshot()
	snap.Tables = snap.Tables[:2]
	require.NoError(t, r.local.SaveSnapshot(context.Background(), snap))
	r.mem.FailWith("get", pos.Errorf(pos.ErrCodeRemoteUnavailable, "sheets.get", "connection refused"))

	src, err := r.eng.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, SourceLocal, src)
	assert.Equal(t, pos.ErrCodeSyncFailed, pos.CodeOf(err))
	assert.True(t, pos.IsRemote(err))
	assert.Len(t, r.eng.Snapshot().Tables, 2)
	assert.False(t, r.eng.Status().Connected)
}

func TestLoad_UnconfiguredUsesDefaults(t *testing.T) {
	r := newRig(t, false)

	src, err := r.eng.Load(context.Background())
	assert.True(t, pos.IsConfigMissing(err))
	assert.Equal(t, SourceDefaults, src)
	assert.Len(t, r.eng.Snapshot().Tables, 10)
	assert.Empty(t, r.mem.Log())
	assert.Equal(t, "Local only", r.eng.Status().Label(r.clock.Now()))
}

func TestPushAll_WritesCollectionsSequentially(t *testing.T) {
	r := loaded(t, true)
	r.clock.Advance(time.Minute)

	require.NoError(t, r.eng.PushAll(context.Background()))

	assert.Equal(t, []string{
		"clear Tables!A:Z", "append Tables!A1 rows=11",
		"clear Menu!A:Z", "append Menu!A1 rows=11",
		"clear Orders!A:Z", "append Orders!A1 rows=1",
		"clear Transactions!A:Z", "append Transactions!A1 rows=1",
		"clear Expenses!A:Z", "append Expenses!A1 rows=1",
	}, r.mem.Log())

	st := r.eng.Status()
	assert.True(t, st.Connected)
	assert.True(t, st.LastSyncAt.Equal(r.clock.Now()))

	changes := r.drain()
	require.NotEmpty(t, changes)
	assert.Equal(t, notify.KindPushed, changes[len(changes)-1].Kind)
	assert.Equal(t, "client-a", changes[len(changes)-1].ClientID)
}

func TestPushAll_FailureMarksDisconnected(t *testing.T) {
	r := loaded(t, true)
	r.mem.FailWith("append", pos.Errorf(pos.ErrCodeRemoteRejected, "sheets.append", "403 The caller does not have permission"))

	err := r.eng.PushAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, pos.ErrCodeSyncFailed, pos.CodeOf(err))
	assert.True(t, pos.HasCode(err, pos.ErrCodeRemoteRejected))

	// The first failing write stops the sequence.
	assert.Equal(t, []string{"clear Tables!A:Z"}, r.mem.Log())

	st := r.eng.Status()
	assert.False(t, st.Connected)
	assert.True(t, st.PushPending)
	assert.Contains(t, st.LastError, "permission")

	cfg, _, err := r.local.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.False(t, cfg.Connected)
}

func TestPushAll_Unconfigured(t *testing.T) {
	r := loaded(t, false)
	err := r.eng.PushAll(context.Background())
	assert.True(t, pos.IsConfigMissing(err))
}

func TestSyncGuard_OverlappingCallsAreNoOps(t *testing.T) {
	r := loaded(t, true)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	r.mem.Hook = func(op, _ string) error {
		if op == "clear" {
			once.Do(func() {
				close(started)
				<-release
			})
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- r.eng.PushAll(context.Background()) }()
	<-started

	assert.True(t, r.eng.Status().Syncing)
	err := r.eng.PushAll(context.Background())
	assert.True(t, pos.HasCode(err, pos.ErrCodeSyncBusy))
	_, err = r.eng.PullDelta(context.Background())
	assert.True(t, pos.HasCode(err, pos.ErrCodeSyncBusy))

	close(release)
	require.NoError(t, <-done)

	// Only the first push reached the remote: five clear+append pairs.
	assert.Equal(t, 5, len(r.mem.Log())/2)
	assert.Equal(t, 1, r.count("clear Tables!A:Z"))
	assert.False(t, r.eng.Status().Syncing)
}

func TestLoad_BusyFallsBackToLocalSnapshot(t *testing.T) {
	r := loaded(t, true)
	ctx := context.Background()

	saved := pos.DefaultSnapshot()
	saved.Tables[3].SetOrders([]pos.OrderLine{pos.DefaultMenu()[0].Line()})
	require.NoError(t, r.local.SaveSnapshot(ctx, saved))

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	r.mem.Hook = func(op, _ string) error {
		if op == "clear" {
			once.Do(func() {
				close(started)
				<-release
			})
		}
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- r.eng.PushAll(ctx) }()
	<-started

	src, err := r.eng.Load(ctx)
	assert.True(t, pos.HasCode(err, pos.ErrCodeSyncBusy))
	assert.Equal(t, SourceLocal, src)

	snap := r.eng.Snapshot()
	require.Len(t, snap.Tables, pos.DefaultTableCount)
	tbl, ok := snap.Table(4)
	require.True(t, ok)
	assert.Equal(t, pos.TableOccupied, tbl.Status)

	close(release)
	require.NoError(t, <-done)
	assert.True(t, r.eng.Status().Connected)
}

func TestPullDelta_CollapsesStackedTableBlocks(t *testing.T) {
	r := loaded(t, true)
	ctx := context.Background()

	later := pos.DefaultTables()
	later[2].SetOrders([]pos.OrderLine{pos.DefaultMenu()[1].Line()})
	r.otherClient(t, pos.DefaultTables())
	blockA := r.mem.Sheet("Tables")
	r.otherClient(t, later)
	r.mem.Put("Tables", append(blockA, r.mem.Sheet("Tables")...))
	require.Len(t, r.mem.Sheet("Tables"), 2*(pos.DefaultTableCount+1))

	changed, err := r.eng.PullDelta(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	snap := r.eng.Snapshot()
	require.Len(t, snap.Tables, pos.DefaultTableCount)
	seen := map[int]bool{}
	for _, tbl := range snap.Tables {
		assert.False(t, seen[tbl.Number], "table %d repeated", tbl.Number)
		seen[tbl.Number] = true
	}
	tbl, ok := snap.Table(3)
	require.True(t, ok)
	assert.Equal(t, pos.TableOccupied, tbl.Status)
}

func TestPullDelta_IsIdempotent(t *testing.T) {
	r := loaded(t, true)
	remote := pos.DefaultTables()
	remote[2].SetOrders([]pos.OrderLine{pos.DefaultMenu()[3].Line()})
	r.otherClient(t, remote)

	changed, err := r.eng.PullDelta(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = r.eng.PullDelta(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)

	var pulled int
	for _, c := range r.drain() {
		if c.Kind == notify.KindPulled {
			pulled++
			assert.Equal(t, []pos.Collection{pos.CollectionTables}, c.Collections)
		}
	}
	assert.Equal(t, 1, pulled)

	snap := r.eng.Snapshot()
	tbl, ok := snap.Table(3)
	require.True(t, ok)
	assert.Equal(t, pos.TableOccupied, tbl.Status)
	assert.Equal(t, []string{"get Tables", "get Orders", "get Tables", "get Orders"}, r.mem.Log())
}

func TestPullDelta_TicketsReplaced(t *testing.T) {
	r := loaded(t, true)
	a := sheets.NewAdapter(r.mem, pos.DefaultCollectionNames())
	require.NoError(t, a.WriteTables(context.Background(), pos.DefaultTables()))
	require.NoError(t, a.WriteTickets(context.Background(), []pos.KitchenTicket{
		{ID: 77, TableNumber: 5, Items: []pos.OrderLine{pos.DefaultMenu()[0].Line()}, Status: pos.TicketPending, Timestamp: "7:00:00 PM"},
	}))

	changed, err := r.eng.PullDelta(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	snap := r.eng.Snapshot()
	require.Len(t, snap.Tickets, 1)
	assert.Equal(t, int64(77), snap.Tickets[0].ID)
}

func TestPullDelta_EmptyRemoteTablesKeepLocal(t *testing.T) {
	r := loaded(t, true)
	occupy(t, r.eng, 1, 2)
	r.mem.Put("Tables", nil)

	changed, err := r.eng.PullDelta(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, pos.TableOccupied, r.eng.Snapshot().Tables[0].Status)
}

func TestPullDelta_KeepsTablesWhileDebouncePending(t *testing.T) {
	r := loaded(t, true, WithDebounce(time.Hour))
	occupy(t, r.eng, 2, 1)
	r.eng.Touch(context.Background())
	r.otherClient(t, pos.DefaultTables())

	changed, err := r.eng.PullDelta(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, pos.TableOccupied, r.eng.Snapshot().Tables[1].Status)
}

func TestPullDelta_KeepsLocalWhilePushPending(t *testing.T) {
	r := loaded(t, true)
	occupy(t, r.eng, 2, 1)
	r.mem.FailWith("clear", pos.Errorf(pos.ErrCodeRemoteUnavailable, "sheets.clear", "timeout"))
	require.Error(t, r.eng.Commit(context.Background()))
	r.mem.FailWith("", nil)

	remote := pos.DefaultTables()
	remote[5].SetOrders([]pos.OrderLine{pos.DefaultMenu()[0].Line()})
	r.otherClient(t, remote)

	changed, err := r.eng.PullDelta(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, pos.TableOccupied, r.eng.Snapshot().Tables[1].Status)
	assert.True(t, r.eng.Status().Connected)
}

func TestPullDelta_FollowsSelectedTable(t *testing.T) {
	r := loaded(t, true)
	require.NoError(t, r.eng.Update(func(s *pos.State) error {
		s.SelectedTable = 4
		return nil
	}))

	remote := pos.DefaultTables()
	momo := pos.DefaultMenu()[0].Line()
	momo.Quantity = 3
	remote[3].SetOrders([]pos.OrderLine{momo})
	r.otherClient(t, remote)

	_, err := r.eng.PullDelta(context.Background())
	require.NoError(t, err)
	snap := r.eng.Snapshot()
	assert.Equal(t, 4, snap.SelectedTable)
	require.Len(t, snap.CurrentOrder, 1)
	assert.Equal(t, 3, snap.CurrentOrder[0].Quantity)

	r.otherClient(t, pos.DefaultTables()[:3])
	_, err = r.eng.PullDelta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, r.eng.Snapshot().SelectedTable)
}

func TestPullDelta_FailureMarksDisconnected(t *testing.T) {
	r := loaded(t, true)
	r.mem.FailWith("get", pos.Errorf(pos.ErrCodeRemoteUnavailable, "sheets.get", "dial tcp: refused"))

	_, err := r.eng.PullDelta(context.Background())
	require.Error(t, err)
	assert.Equal(t, pos.ErrCodeSyncFailed, pos.CodeOf(err))
	assert.False(t, r.eng.Status().Connected)
	assert.Equal(t, "Offline", r.eng.Status().Label(r.clock.Now()))
}

func runEngine(t *testing.T, e *Engine) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestDebounce_CoalescesRapidEdits(t *testing.T) {
	r := loaded(t, true, WithDebounce(50*time.Millisecond))
	runEngine(t, r.eng)

	for qty := 1; qty <= 3; qty++ {
		occupy(t, r.eng, 7, qty)
		r.eng.Touch(context.Background())
	}

	require.Eventually(t, func() bool {
		return r.count("append Tables!A1 rows=11") == 1 && !r.eng.Status().Syncing
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []string{"clear Tables!A:Z", "append Tables!A1 rows=11"}, r.mem.Log())
	got, err := sheets.NewAdapter(r.mem, pos.DefaultCollectionNames()).ReadTables(context.Background())
	require.NoError(t, err)
	require.Len(t, got[6].Orders, 1)
	assert.Equal(t, 3, got[6].Orders[0].Quantity)
	assert.False(t, r.eng.Status().TablesPending)
}

func TestDebounce_FailureIsSilentAndFallsBack(t *testing.T) {
	r := loaded(t, true)
	r.mem.FailWith("clear", pos.Errorf(pos.ErrCodeRemoteUnavailable, "sheets.clear", "timeout"))

	occupy(t, r.eng, 3, 1)
	r.eng.Touch(context.Background())
	err := r.eng.Flush(context.Background())
	require.Error(t, err)

	st := r.eng.Status()
	assert.False(t, st.Connected)
	assert.True(t, st.PushPending)

	saved, ok, err := r.local.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pos.TableOccupied, saved.Tables[2].Status)
}

func TestFlush_UnconfiguredSavesLocally(t *testing.T) {
	r := loaded(t, false)
	occupy(t, r.eng, 1, 1)
	r.eng.Touch(context.Background())

	require.NoError(t, r.eng.Flush(context.Background()))
	saved, ok, err := r.local.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pos.TableOccupied, saved.Tables[0].Status)
	assert.Empty(t, r.mem.Log())
}

func TestCommit_FailureStillPersistsLocally(t *testing.T) {
	r := loaded(t, true)
	r.mem.FailWith("append", pos.Errorf(pos.ErrCodeRemoteUnavailable, "sheets.append", "503"))

	occupy(t, r.eng, 9, 2)
	err := r.eng.Commit(context.Background())
	require.Error(t, err)
	assert.Equal(t, pos.ErrCodeSyncFailed, pos.CodeOf(err))

	saved, ok, lerr := r.local.LoadSnapshot(context.Background())
	require.NoError(t, lerr)
	require.True(t, ok)
	assert.Equal(t, pos.TableOccupied, saved.Tables[8].Status)
	assert.False(t, r.eng.Status().Connected)
}

func TestCommit_UnconfiguredIsLocalOnly(t *testing.T) {
	r := loaded(t, false)
	occupy(t, r.eng, 1, 1)

	require.NoError(t, r.eng.Commit(context.Background()))
	saved, ok, err := r.local.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pos.TableOccupied, saved.Tables[0].Status)
}

func TestBackgroundSync_PushesBeforePulling(t *testing.T) {
	r := loaded(t, true)
	r.mem.FailWith("clear", pos.Errorf(pos.ErrCodeRemoteUnavailable, "sheets.clear", "timeout"))
	occupy(t, r.eng, 2, 1)
	require.Error(t, r.eng.Commit(context.Background()))
	r.mem.FailWith("", nil)
	r.mem.ResetLog()

	r.eng.processEvent(context.Background(), Event{Type: EventPoll})
	assert.Equal(t, 1, r.count("clear Tables!A:Z"))
	assert.Equal(t, 0, r.count("get Tables"))
	assert.False(t, r.eng.Status().PushPending)

	r.mem.ResetLog()
	r.eng.processEvent(context.Background(), Event{Type: EventPoll})
	assert.Equal(t, []string{"get Tables", "get Orders"}, r.mem.Log())
}

func TestPoll_SuppressedInBackground(t *testing.T) {
	r := loaded(t, true)
	r.eng.SetForeground(false)

	r.eng.processEvent(context.Background(), Event{Type: EventPoll})
	r.eng.processEvent(context.Background(), Event{Type: EventRemoteHint})
	assert.Empty(t, r.mem.Log())

	r.eng.SetForeground(true)
	require.Equal(t, 1, r.eng.queue.Len())
	ev, _ := r.eng.queue.TryDequeue()
	assert.Equal(t, EventForeground, ev.Type)
	r.eng.processEvent(context.Background(), ev)
	assert.Equal(t, []string{"get Tables", "get Orders"}, r.mem.Log())
}

func TestRun_PollsOnInterval(t *testing.T) {
	r := loaded(t, true, WithPollInterval(20*time.Millisecond))
	runEngine(t, r.eng)

	require.Eventually(t, func() bool {
		return r.count("get Tables") >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRun_StopReturns(t *testing.T) {
	r := loaded(t, true)
	done := make(chan error, 1)
	go func() { done <- r.eng.Run(context.Background()) }()

	r.eng.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestRun_FlushesOnShutdown(t *testing.T) {
	r := loaded(t, true, WithDebounce(time.Hour))
	cancel := runEngine(t, r.eng)

	occupy(t, r.eng, 4, 1)
	r.eng.Touch(context.Background())
	cancel()

	require.Eventually(t, func() bool {
		return r.count("append Tables!A1 rows=11") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRefresh_PushesPendingThenPulls(t *testing.T) {
	r := loaded(t, true, WithDebounce(time.Hour))
	occupy(t, r.eng, 4, 1)
	r.eng.Touch(context.Background())

	changed, err := r.eng.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, r.count("clear Tables!A:Z"))
	assert.Equal(t, 1, r.count("get Tables"))
	assert.False(t, r.eng.Status().TablesPending)
}

func TestApplySettings(t *testing.T) {
	r := loaded(t, false)

	_, err := r.eng.ApplySettings(context.Background(), pos.SyncConfig{RemoteID: "  "})
	assert.True(t, pos.IsValidation(err))

	cfg := pos.SyncConfig{RemoteID: " sheet-9 ", Credential: "key-9", Collections: pos.CollectionNames{Tables: "Floor"}}
	src, err := r.eng.ApplySettings(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, src)

	got := r.eng.Settings()
	assert.Equal(t, "sheet-9", got.RemoteID)
	assert.Equal(t, "Menu", got.Collections.Menu)
	assert.Contains(t, r.mem.Log(), "get Floor")

	saved, ok, err := r.local.LoadSettings(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Floor", saved.Collections.Tables)
	assert.True(t, saved.Connected)
}

func TestTestConnection(t *testing.T) {
	r := loaded(t, false)

	title, err := r.eng.TestConnection(context.Background(), testutil.Settings())
	require.NoError(t, err)
	assert.Equal(t, "Test Restaurant", title)

	_, err = r.eng.TestConnection(context.Background(), pos.SyncConfig{})
	assert.True(t, pos.IsConfigMissing(err))
}

func TestStatus_Freshness(t *testing.T) {
	r := loaded(t, true)
	st := r.eng.Status()
	assert.Equal(t, pos.FreshnessLive, st.Freshness(r.clock.Now()))

	later := r.clock.Now().Add(3 * time.Minute)
	assert.Equal(t, pos.FreshnessAging, st.Freshness(later))
	assert.Equal(t, "3m ago", st.Label(later))
	assert.Equal(t, pos.FreshnessStale, st.Freshness(r.clock.Now().Add(10*time.Minute)))
}
