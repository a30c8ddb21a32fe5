package view

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCollapsesBurst(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Trigger(func() {
			calls.Add(1)
			last.Store(n)
		})
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one call, got %d", got)
	}
	if got := last.Load(); got != 5 {
		t.Fatalf("expected the last trigger to win, got %d", got)
	}
}

func TestDebouncerZeroDelayRunsInline(t *testing.T) {
	d := NewDebouncer(0)
	ran := false
	d.Trigger(func() { ran = true })
	if !ran {
		t.Fatalf("expected immediate run")
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("stopped debouncer should not fire")
	}
}
