package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/possync/internal/notify"
	"github.com/roach88/possync/internal/pos"
)

const (
	// DefaultPollInterval is the pull cadence while in the foreground.
	DefaultPollInterval = 30 * time.Second

	// DefaultDebounce is the quiet period before a draft edit is pushed.
	DefaultDebounce = 800 * time.Millisecond
)

// Source says where Load found the state.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceLocal    Source = "local"
	SourceDefaults Source = "defaults"
)

// Engine owns one client's domain state and its synchronization.
//
// Thread-safety model:
//   - Update, View, Snapshot, Touch, SetForeground, Hint: safe from any goroutine
//   - PushAll, PullDelta, Commit, Flush, Refresh, Load: safe from any
//     goroutine; overlapping calls are rejected by the sync guard
//   - Run: must be called from exactly one goroutine
type Engine struct {
	local         Local
	newRemote     RemoteFactory
	notifier      notify.Notifier
	now           func() time.Time
	clientID      string
	pollInterval  time.Duration
	debounceDelay time.Duration

	mu     sync.Mutex
	state  *pos.State
	cfg    pos.SyncConfig
	remote Remote

	// version counts local mutations. A pull whose reads straddle a
	// mutation is discarded.
	version     uint64
	pushPending bool // a full push failed or was skipped
	tablesDirty bool // a debounced Tables push is outstanding
	lastPullAt  *time.Time
	lastError   string

	syncing    atomic.Bool
	foreground atomic.Bool

	queue    *eventQueue
	debounce *Debouncer
	poller   *Poller
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets who hears about state changes.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithClientID fixes the client identity stamped on notifications.
func WithClientID(id string) Option {
	return func(e *Engine) { e.clientID = id }
}

// WithPollInterval sets the polling cadence. Zero disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// WithDebounce sets the debounce window for draft edits.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounceDelay = d }
}

// New creates an engine holding the default state. Call Load before use.
func New(local Local, newRemote RemoteFactory, opts ...Option) *Engine {
	e := &Engine{
		local:         local,
		newRemote:     newRemote,
		now:           time.Now,
		clientID:      uuid.Must(uuid.NewV7()).String(),
		pollInterval:  DefaultPollInterval,
		debounceDelay: DefaultDebounce,
		state:         pos.NewState(),
		cfg:           pos.DefaultSyncConfig(),
		queue:         newEventQueue(),
	}
	e.foreground.Store(true)

	for _, opt := range opts {
		opt(e)
	}

	e.debounce = NewDebouncer(e.debounceDelay, func() {
		e.queue.Enqueue(Event{Type: EventFlushTables})
	})
	e.poller = NewPoller(e.pollInterval, func() {
		e.queue.Enqueue(Event{Type: EventPoll})
	})
	return e
}

// ClientID identifies this client in notifications.
func (e *Engine) ClientID() string { return e.clientID }

// Now reads the engine clock.
func (e *Engine) Now() time.Time { return e.now() }

// Run processes background events until ctx is cancelled or Stop is
// called. On the way out it pushes any debounced Tables edit so a closing
// client does not drop the last draft change.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("sync engine starting",
		"client", e.clientID,
		"poll_interval", e.pollInterval,
		"debounce", e.debounceDelay,
	)
	e.poller.Start()
	defer e.shutdown(ctx)

	for {
		if ev, ok := e.queue.TryDequeue(); ok {
			e.processEvent(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("sync engine stopping: context cancelled")
			return ctx.Err()

		case _, open := <-e.queue.Wait():
			if !open && e.queue.Len() == 0 {
				slog.Info("sync engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop makes Run return once queued events are handled.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) shutdown(ctx context.Context) {
	e.poller.Stop()
	e.queue.Close()
	if err := e.Flush(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("final tables push failed", "error", err)
	}
}

func (e *Engine) processEvent(ctx context.Context, ev Event) {
	slog.Debug("processing event", "event", ev.Type)

	switch ev.Type {
	case EventPoll, EventRemoteHint:
		if !e.foreground.Load() {
			slog.Debug("pull suppressed while in background", "event", ev.Type)
			return
		}
		e.backgroundSync(ctx)
	case EventForeground:
		e.backgroundSync(ctx)
	case EventFlushTables:
		if err := e.flushTables(ctx); err != nil && !pos.HasCode(err, pos.ErrCodeSyncBusy) {
			slog.Warn("debounced tables push failed", "error", err)
		}
	default:
		slog.Error("unknown event type", "event", int(ev.Type))
	}
}

// backgroundSync is the timer-driven sync. Errors only reach the log and
// the status indicator.
func (e *Engine) backgroundSync(ctx context.Context) {
	e.mu.Lock()
	configured := e.cfg.Configured()
	pending := e.pushPending
	e.mu.Unlock()
	if !configured {
		return
	}

	if pending {
		if err := e.PushAll(ctx); err != nil {
			logBackground("retry push", err)
			e.saveLocal(ctx)
		}
		return
	}
	if _, err := e.PullDelta(ctx); err != nil {
		logBackground("poll pull", err)
	}
}

func logBackground(what string, err error) {
	if pos.HasCode(err, pos.ErrCodeSyncBusy) {
		slog.Debug(what+" skipped", "error", err)
		return
	}
	slog.Warn(what+" failed", "error", err)
}

// SetForeground records the client's focus state. Regaining focus queues
// one immediate pull.
func (e *Engine) SetForeground(fg bool) {
	prev := e.foreground.Swap(fg)
	if fg && !prev {
		e.queue.Enqueue(Event{Type: EventForeground})
	}
}

// Hint queues a pull because another client announced a change.
func (e *Engine) Hint() {
	e.queue.Enqueue(Event{Type: EventRemoteHint})
}

// Update runs fn against the state under the engine lock. fn must validate
// before mutating: a non-nil error means the state is unchanged.
func (e *Engine) Update(fn func(*pos.State) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.state); err != nil {
		return err
	}
	e.version++
	return nil
}

// View runs fn against the state under the engine lock. fn must not retain
// references into the state.
func (e *Engine) View(fn func(*pos.State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
}

// Snapshot returns a deep copy of the state including selection and draft.
func (e *Engine) Snapshot() pos.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return pos.State{
		Snapshot:      e.state.Snapshot.Clone(),
		SelectedTable: e.state.SelectedTable,
		CurrentOrder:  pos.CloneLines(e.state.CurrentOrder),
	}
}

// Settings returns the current sync configuration.
func (e *Engine) Settings() pos.SyncConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Status is the connection indicator.
type Status struct {
	ClientID      string
	Configured    bool
	Connected     bool
	Syncing       bool
	Foreground    bool
	PushPending   bool
	TablesPending bool
	LastSyncAt    *time.Time
	LastPullAt    *time.Time
	LastError     string
}

// LastContact is the most recent successful push or pull.
func (s Status) LastContact() *time.Time {
	switch {
	case s.LastSyncAt == nil:
		return s.LastPullAt
	case s.LastPullAt == nil:
		return s.LastSyncAt
	case s.LastPullAt.After(*s.LastSyncAt):
		return s.LastPullAt
	}
	return s.LastSyncAt
}

// Freshness buckets LastContact relative to now.
func (s Status) Freshness(now time.Time) pos.Freshness {
	return pos.FreshnessAt(s.LastContact(), now)
}

// Label renders the indicator text.
func (s Status) Label(now time.Time) string {
	if !s.Configured {
		return "Local only"
	}
	if !s.Connected {
		return "Offline"
	}
	return pos.FreshnessLabel(s.LastContact(), now)
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		ClientID:      e.clientID,
		Configured:    e.cfg.Configured(),
		Connected:     e.cfg.Connected,
		Syncing:       e.syncing.Load(),
		Foreground:    e.foreground.Load(),
		PushPending:   e.pushPending,
		TablesPending: e.tablesDirty,
		LastSyncAt:    e.cfg.LastSyncAt,
		LastPullAt:    e.lastPullAt,
		LastError:     e.lastError,
	}
}

// emit notifies without holding the lock. Failures are logged.
func (e *Engine) emit(ctx context.Context, kind notify.Kind, cols ...pos.Collection) {
	if e.notifier == nil {
		return
	}
	c := notify.Change{Kind: kind, Collections: cols, ClientID: e.clientID, At: e.now()}
	if err := e.notifier.Notify(context.WithoutCancel(ctx), c); err != nil {
		slog.Warn("change notification failed", "kind", kind, "error", err)
	}
}
