// Package notify delivers "state changed" signals to whoever renders the
// state: in-process subscribers through Hub and other terminals through an
// AMQP fanout exchange.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roach88/possync/internal/pos"
)

// Kind says what produced a change.
type Kind string

const (
	// KindLoaded follows a full load.
	KindLoaded Kind = "loaded"
	// KindPulled follows a pull that found remote differences.
	KindPulled Kind = "pulled"
	// KindPushed follows a successful push to the remote store.
	KindPushed Kind = "pushed"
	// KindLocal follows a local mutation not yet pushed.
	KindLocal Kind = "local"
	// KindStatus follows a change of the connection indicator only.
	KindStatus Kind = "status"
)

// Change is one notification.
type Change struct {
	Kind        Kind             `json:"kind"`
	Collections []pos.Collection `json:"collections,omitempty"`
	ClientID    string           `json:"clientId"`
	At          time.Time        `json:"at"`
}

// Notifier receives changes. Implementations must not block for long; the
// engine calls them after releasing its state lock.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// Multi forwards to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, c Change) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Hub fans changes out to in-process subscribers. A subscriber that falls
// behind loses the oldest pending change rather than blocking the sender.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Change)}
}

// Subscribe returns a channel of changes and a cancel func that closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Notify(_ context.Context, c Change) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- c:
			continue
		default:
		}
		// Full: drop the oldest and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}
