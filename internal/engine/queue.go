package engine

import "sync"

// EventType distinguishes background work items.
type EventType int

const (
	// EventPoll is a polling timer tick.
	EventPoll EventType = iota + 1
	// EventForeground is the client regaining focus.
	EventForeground
	// EventFlushTables is the debounce window closing.
	EventFlushTables
	// EventRemoteHint is another client announcing a push.
	EventRemoteHint
)

func (t EventType) String() string {
	switch t {
	case EventPoll:
		return "poll"
	case EventForeground:
		return "foreground"
	case EventFlushTables:
		return "flush_tables"
	case EventRemoteHint:
		return "remote_hint"
	}
	return "unknown"
}

// Event is one unit of background work for the Run loop.
type Event struct {
	Type EventType
}

// eventQueue is a thread-safe FIFO queue for events.
//
// Timers and notification listeners enqueue from their own goroutines; the
// Run loop is the only consumer. The signal channel (buffered, size 1) lets
// the loop wait on it alongside ctx.Done().
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 8),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that signals when events may be available. It is
// closed once the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops further enqueues and wakes the waiter.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
