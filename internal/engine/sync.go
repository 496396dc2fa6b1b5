package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/possync/internal/notify"
	"github.com/roach88/possync/internal/pos"
)

func (e *Engine) beginSync(op string) error {
	if !e.syncing.CompareAndSwap(false, true) {
		return pos.Errorf(pos.ErrCodeSyncBusy, op, "a sync is already in progress")
	}
	return nil
}

func (e *Engine) endSync() {
	e.syncing.Store(false)
}

// acquireRemote returns the remote for the current settings, building it
// on first use.
func (e *Engine) acquireRemote(ctx context.Context) (Remote, error) {
	e.mu.Lock()
	cfg := e.cfg
	r := e.remote
	e.mu.Unlock()

	if !cfg.Configured() {
		return nil, pos.Errorf(pos.ErrCodeConfigMissing, "engine.remote", "remote id and credential are not set")
	}
	if r != nil {
		return r, nil
	}

	r, err := e.newRemote(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build remote: %w", err)
	}

	e.mu.Lock()
	if e.remote == nil {
		e.remote = r
	}
	r = e.remote
	e.mu.Unlock()
	return r, nil
}

// markDisconnected flips the indicator after a failed remote call.
func (e *Engine) markDisconnected(ctx context.Context, err error) {
	e.mu.Lock()
	was := e.cfg.Connected
	e.cfg.Connected = false
	e.lastError = err.Error()
	cfg := e.cfg
	e.mu.Unlock()

	if was {
		e.persistSettings(ctx, cfg)
	}
	e.emit(ctx, notify.KindStatus)
}

// markPushed records a successful push of cols. Pending flags clear only if
// nothing changed locally since the pushed snapshot was taken.
func (e *Engine) markPushed(ctx context.Context, version uint64, full bool, cols ...pos.Collection) {
	e.mu.Lock()
	now := e.now()
	e.cfg.Connected = true
	e.cfg.LastSyncAt = &now
	e.lastError = ""
	clean := e.version == version
	if clean {
		e.tablesDirty = false
		if full {
			e.pushPending = false
		}
	}
	cfg := e.cfg
	e.mu.Unlock()

	if clean {
		e.debounce.Cancel()
	}
	e.persistSettings(ctx, cfg)
	e.emit(ctx, notify.KindPushed, cols...)
}

func (e *Engine) persistSettings(ctx context.Context, cfg pos.SyncConfig) {
	if err := e.local.SaveSettings(ctx, cfg); err != nil {
		slog.Warn("saving sync settings failed", "error", err)
	}
}

// saveLocal writes the fallback snapshot. Failures are logged only: there
// is nowhere further to fall back to.
func (e *Engine) saveLocal(ctx context.Context) error {
	e.mu.Lock()
	snap := e.state.Snapshot.Clone()
	e.mu.Unlock()

	if err := e.local.SaveSnapshot(ctx, snap); err != nil {
		slog.Error("saving local snapshot failed", "error", err)
		return fmt.Errorf("save local snapshot: %w", err)
	}
	return nil
}

// PushAll writes all five collections to the remote store, one after the
// other. The first failing write aborts the rest, marks the client
// disconnected and returns ErrCodeSyncFailed; the caller is responsible for
// the local fallback. A call overlapping another sync returns
// ErrCodeSyncBusy and does nothing.
func (e *Engine) PushAll(ctx context.Context) error {
	const op = "engine.push"

	remote, err := e.acquireRemote(ctx)
	if err != nil {
		return err
	}
	if err := e.beginSync(op); err != nil {
		return err
	}
	defer e.endSync()

	e.mu.Lock()
	snap := e.state.Snapshot.Clone()
	version := e.version
	e.mu.Unlock()

	if err := pushSnapshot(ctx, remote, snap); err != nil {
		e.mu.Lock()
		e.pushPending = true
		e.mu.Unlock()
		e.markDisconnected(ctx, err)
		return pos.Wrap(pos.ErrCodeSyncFailed, op, err)
	}

	e.markPushed(ctx, version, true, pos.Collections...)
	slog.Info("pushed all collections",
		"tables", len(snap.Tables),
		"menu", len(snap.Menu),
		"tickets", len(snap.Tickets),
		"transactions", len(snap.Transactions),
		"expenses", len(snap.Expenses),
	)
	return nil
}

func pushSnapshot(ctx context.Context, r Remote, snap pos.Snapshot) error {
	if err := r.WriteTables(ctx, snap.Tables); err != nil {
		return fmt.Errorf("write tables: %w", err)
	}
	if err := r.WriteMenu(ctx, snap.Menu); err != nil {
		return fmt.Errorf("write menu: %w", err)
	}
	if err := r.WriteTickets(ctx, snap.Tickets); err != nil {
		return fmt.Errorf("write orders: %w", err)
	}
	if err := r.WriteTransactions(ctx, snap.Transactions); err != nil {
		return fmt.Errorf("write transactions: %w", err)
	}
	if err := r.WriteExpenses(ctx, snap.Expenses); err != nil {
		return fmt.Errorf("write expenses: %w", err)
	}
	return nil
}

// PullDelta reads Tables and active tickets and replaces the local copy of
// whichever differs. It reports whether anything was replaced.
//
// Local data wins in three cases: the reads straddled a local mutation,
// a full push is outstanding, or (Tables only) a debounced push is
// outstanding. An empty remote Tables collection never replaces local
// tables; it is what a reader sees between another client's clear and
// append.
func (e *Engine) PullDelta(ctx context.Context) (bool, error) {
	const op = "engine.pull"

	remote, err := e.acquireRemote(ctx)
	if err != nil {
		return false, err
	}
	if err := e.beginSync(op); err != nil {
		return false, err
	}
	defer e.endSync()

	e.mu.Lock()
	version := e.version
	e.mu.Unlock()

	tables, err := remote.ReadTables(ctx)
	if err != nil {
		e.markDisconnected(ctx, err)
		return false, pos.Wrap(pos.ErrCodeSyncFailed, op, err)
	}
	tickets, err := remote.ReadTickets(ctx)
	if err != nil {
		e.markDisconnected(ctx, err)
		return false, pos.Wrap(pos.ErrCodeSyncFailed, op, err)
	}
	pulled := pos.Snapshot{Tables: tables, Tickets: tickets}
	pulled.Normalize()

	e.mu.Lock()
	now := e.now()
	e.lastPullAt = &now
	reconnected := !e.cfg.Connected
	e.cfg.Connected = true
	e.lastError = ""

	var changed []pos.Collection
	switch {
	case e.version != version:
		slog.Debug("discarding pull: local state changed during read")
	case e.pushPending:
		slog.Debug("discarding pull: unpushed local changes")
	default:
		if len(pulled.Tables) > 0 && !e.tablesDirty &&
			pos.TablesFingerprint(pulled.Tables) != pos.TablesFingerprint(e.state.Tables) {
			e.state.ReplaceTables(pulled.Tables)
			changed = append(changed, pos.CollectionTables)
		}
		if pos.TicketsFingerprint(pulled.Tickets) != pos.TicketsFingerprint(e.state.Tickets) {
			e.state.Tickets = pulled.Tickets
			changed = append(changed, pos.CollectionOrders)
		}
	}
	cfg := e.cfg
	e.mu.Unlock()

	if reconnected {
		e.persistSettings(ctx, cfg)
		e.emit(ctx, notify.KindStatus)
	}
	if len(changed) == 0 {
		return false, nil
	}

	slog.Info("pulled remote changes", "collections", changed)
	e.saveLocal(ctx)
	e.emit(ctx, notify.KindPulled, changed...)
	return true, nil
}

// Touch records a lightweight draft edit: the Tables collection is pushed
// once the debounce window closes without further edits.
func (e *Engine) Touch(ctx context.Context) {
	e.mu.Lock()
	e.tablesDirty = true
	e.mu.Unlock()

	e.debounce.Trigger()
	e.emit(ctx, notify.KindLocal, pos.CollectionTables)
}

// Flush pushes a pending debounced Tables edit now.
func (e *Engine) Flush(ctx context.Context) error {
	e.debounce.Cancel()
	return e.flushTables(ctx)
}

func (e *Engine) flushTables(ctx context.Context) error {
	const op = "engine.flush_tables"

	e.mu.Lock()
	dirty := e.tablesDirty
	e.mu.Unlock()
	if !dirty {
		return nil
	}

	remote, err := e.acquireRemote(ctx)
	if err != nil {
		e.mu.Lock()
		e.tablesDirty = false
		if !pos.IsConfigMissing(err) {
			e.pushPending = true
		}
		e.mu.Unlock()
		e.saveLocal(ctx)
		if pos.IsConfigMissing(err) {
			return nil
		}
		e.markDisconnected(ctx, err)
		return err
	}

	if err := e.beginSync(op); err != nil {
		// The write was never attempted; wait out another window.
		e.debounce.Trigger()
		e.saveLocal(ctx)
		return err
	}
	defer e.endSync()

	e.mu.Lock()
	tables := e.state.Snapshot.Clone().Tables
	version := e.version
	e.mu.Unlock()

	err = remote.WriteTables(ctx, tables)
	e.saveLocal(ctx)
	if err != nil {
		e.mu.Lock()
		e.tablesDirty = false
		e.pushPending = true
		e.mu.Unlock()
		e.markDisconnected(ctx, err)
		return pos.Wrap(pos.ErrCodeSyncFailed, op, err)
	}

	e.markPushed(ctx, version, false, pos.CollectionTables)
	slog.Debug("pushed tables", "count", len(tables))
	return nil
}

// Commit finishes a heavyweight operation: push everything now, then write
// the local snapshot whatever the outcome. Remote failures are returned so
// the initiating caller can show them; the local write has happened either
// way. Unconfigured clients and a push skipped by the sync guard are not
// failures.
func (e *Engine) Commit(ctx context.Context) error {
	err := e.PushAll(ctx)
	switch {
	case err == nil:
	case pos.IsConfigMissing(err):
		err = nil
		e.emit(ctx, notify.KindLocal, pos.Collections...)
	case pos.HasCode(err, pos.ErrCodeSyncBusy):
		slog.Info("push skipped: sync in progress; will push on next trigger")
		e.mu.Lock()
		e.pushPending = true
		e.mu.Unlock()
		err = nil
		e.emit(ctx, notify.KindLocal, pos.Collections...)
	default:
		slog.Warn("push failed; saved locally", "error", err)
	}

	if serr := e.saveLocal(ctx); serr != nil && err == nil {
		return serr
	}
	return err
}

// Refresh is the user-initiated sync: push outstanding changes first, then
// pull. Errors are returned to the caller.
func (e *Engine) Refresh(ctx context.Context) (bool, error) {
	e.mu.Lock()
	pending := e.pushPending || e.tablesDirty
	e.mu.Unlock()

	if pending {
		e.debounce.Cancel()
		if err := e.PushAll(ctx); err != nil {
			e.saveLocal(ctx)
			return false, err
		}
	}
	return e.PullDelta(ctx)
}

// Load reads the persisted settings and then the full state: from the
// remote store when configured and reachable, otherwise from the local
// snapshot, otherwise the defaults. The returned error explains why the
// remote was not used; the state is usable either way.
func (e *Engine) Load(ctx context.Context) (Source, error) {
	cfg, ok, err := e.local.LoadSettings(ctx)
	if err != nil {
		slog.Warn("loading sync settings failed", "error", err)
	}
	if err != nil || !ok {
		cfg = pos.DefaultSyncConfig()
	}

	e.mu.Lock()
	e.cfg = cfg
	e.remote = nil
	e.mu.Unlock()

	return e.loadState(ctx)
}

func (e *Engine) loadState(ctx context.Context) (Source, error) {
	const op = "engine.load"

	remote, err := e.acquireRemote(ctx)
	if err == nil {
		if err = e.beginSync(op); err != nil {
			slog.Warn("sync in progress; loading local snapshot", "error", err)
		}
	}
	if err == nil {
		snap, rerr := readAll(ctx, remote)
		e.endSync()

		if rerr == nil {
			e.install(snap)
			e.mu.Lock()
			now := e.now()
			e.cfg.Connected = true
			e.cfg.LastSyncAt = &now
			e.lastPullAt = &now
			e.lastError = ""
			cfg := e.cfg
			e.mu.Unlock()

			e.persistSettings(ctx, cfg)
			e.saveLocal(ctx)
			e.emit(ctx, notify.KindLoaded, pos.Collections...)
			slog.Info("loaded state from remote", "tables", len(snap.Tables), "menu", len(snap.Menu))
			return SourceRemote, nil
		}

		err = pos.Wrap(pos.ErrCodeSyncFailed, op, rerr)
		e.markDisconnected(ctx, err)
		slog.Warn("remote load failed; falling back to local snapshot", "error", err)
	}

	source := SourceLocal
	snap, ok, lerr := e.local.LoadSnapshot(ctx)
	if lerr != nil {
		slog.Error("loading local snapshot failed", "error", lerr)
	}
	if lerr != nil || !ok {
		snap = pos.DefaultSnapshot()
		source = SourceDefaults
	}
	e.install(snap)
	e.emit(ctx, notify.KindLoaded, pos.Collections...)
	return source, err
}

// install replaces the whole state, seeding defaults for empty tables or
// menu, and clears the selection and pending flags.
func (e *Engine) install(snap pos.Snapshot) {
	if len(snap.Tables) == 0 {
		snap.Tables = pos.DefaultTables()
	}
	if len(snap.Menu) == 0 {
		snap.Menu = pos.DefaultMenu()
	}
	snap.Normalize()

	e.mu.Lock()
	e.state = &pos.State{Snapshot: snap, CurrentOrder: []pos.OrderLine{}}
	e.version++
	e.pushPending = false
	e.tablesDirty = false
	e.mu.Unlock()
	e.debounce.Cancel()
}

func readAll(ctx context.Context, r Remote) (pos.Snapshot, error) {
	var snap pos.Snapshot
	var err error
	if snap.Tables, err = r.ReadTables(ctx); err != nil {
		return snap, fmt.Errorf("read tables: %w", err)
	}
	if snap.Menu, err = r.ReadMenu(ctx); err != nil {
		return snap, fmt.Errorf("read menu: %w", err)
	}
	if snap.Tickets, err = r.ReadTickets(ctx); err != nil {
		return snap, fmt.Errorf("read orders: %w", err)
	}
	if snap.Transactions, err = r.ReadTransactions(ctx); err != nil {
		return snap, fmt.Errorf("read transactions: %w", err)
	}
	if snap.Expenses, err = r.ReadExpenses(ctx); err != nil {
		return snap, fmt.Errorf("read expenses: %w", err)
	}
	return snap, nil
}

// ApplySettings is the settings-save operation: validate, persist, switch
// the remote, restart polling and reload the full state.
func (e *Engine) ApplySettings(ctx context.Context, cfg pos.SyncConfig) (Source, error) {
	const op = "engine.settings"

	cfg.RemoteID = strings.TrimSpace(cfg.RemoteID)
	cfg.Credential = strings.TrimSpace(cfg.Credential)
	if !cfg.Configured() {
		return "", pos.Errorf(pos.ErrCodeValidation, op, "remote id and credential are required")
	}
	cfg.Collections = cfg.Collections.WithDefaults()
	cfg.Connected = false
	cfg.LastSyncAt = nil

	remote, err := e.newRemote(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("build remote: %w", err)
	}
	if err := e.local.SaveSettings(ctx, cfg); err != nil {
		return "", fmt.Errorf("save settings: %w", err)
	}

	e.mu.Lock()
	e.cfg = cfg
	e.remote = remote
	e.mu.Unlock()

	if e.poller.Running() {
		e.poller.Restart()
	}
	slog.Info("sync settings saved", "remote_id", cfg.RemoteID)
	return e.loadState(ctx)
}

// TestConnection checks a configuration without applying it and returns
// the remote store's title.
func (e *Engine) TestConnection(ctx context.Context, cfg pos.SyncConfig) (string, error) {
	if !cfg.Configured() {
		return "", pos.Errorf(pos.ErrCodeConfigMissing, "engine.test", "remote id and credential are required")
	}
	cfg.Collections = cfg.Collections.WithDefaults()
	remote, err := e.newRemote(ctx, cfg)
	if err != nil {
		return "", err
	}
	title, err := remote.Title(ctx)
	if err != nil {
		return "", err
	}
	return title, nil
}
