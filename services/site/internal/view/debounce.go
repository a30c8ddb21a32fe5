package view

import (
	"sync"
	"time"
)

// Debouncer runs only the last of a burst of triggers, delay after it.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing anything still pending. With no delay fn
// runs immediately on the caller's goroutine.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	if d.delay <= 0 {
		d.mu.Unlock()
		fn()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
	d.mu.Unlock()
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
