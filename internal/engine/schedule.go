package engine

import (
	"sync"
	"time"
)

// Debouncer runs fire once, delay after the most recent Trigger. Each
// Trigger cancels and replaces the outstanding timer, so a burst of
// triggers yields a single call.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fire  func()
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates an idle debouncer.
func NewDebouncer(delay time.Duration, fire func()) *Debouncer {
	return &Debouncer{delay: delay, fire: fire}
}

// Trigger (re)starts the window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A newer Trigger or a Cancel may have raced the timer.
		if gen != d.gen || d.timer == nil {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fire()
	})
}

// Cancel drops the outstanding timer. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending reports whether a timer is outstanding.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Poller calls tick every interval until stopped. Restart replaces the
// running ticker, which is how a settings change resets the schedule.
type Poller struct {
	mu       sync.Mutex
	interval time.Duration
	tick     func()
	stop     chan struct{}
	done     chan struct{}
}

func NewPoller(interval time.Duration, tick func()) *Poller {
	return &Poller{interval: interval, tick: tick}
}

// Start begins ticking. It is a no-op when already running or when the
// interval is not positive.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startLocked()
}

func (p *Poller) startLocked() {
	if p.stop != nil || p.interval <= 0 {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop, p.done = stop, done

	go func() {
		defer close(done)
		t := time.NewTicker(p.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				p.tick()
			}
		}
	}()
}

// Stop halts ticking and waits for the ticker goroutine to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.stop, p.done = nil, nil
}

// Restart clears the running ticker and starts a fresh one.
func (p *Poller) Restart() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.startLocked()
}

// Running reports whether the ticker goroutine is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}
