package frame

import (
	"sync"
	"sync/atomic"
	"time"
)

// Latest is a single-slot handoff between one producer and one consumer.
// It holds at most the most recently produced frame: a Put while a frame is
// still pending displaces the old one. Capacity is deliberately one, not a
// queue: the consumer always wants "now", never a backlog.
type Latest struct {
	mu      sync.Mutex
	pending *Frame

	// Buffered by one so Put can signal without blocking.
	notify chan struct{}

	drops atomic.Uint64
}

// NewLatest creates an empty slot.
func NewLatest() *Latest {
	return &Latest{notify: make(chan struct{}, 1)}
}

// Put stores f as the pending frame. It never blocks and always succeeds.
// If an unconsumed frame was pending, it is returned so the caller can
// release it; otherwise dropped is nil.
func (l *Latest) Put(f *Frame) (dropped *Frame) {
	l.mu.Lock()
	dropped = l.pending
	l.pending = f
	l.mu.Unlock()

	if dropped != nil {
		l.drops.Add(1)
	}

	select {
	case l.notify <- struct{}{}:
	default:
	}
	return dropped
}

// TakeLatest removes and returns the pending frame. When the slot is empty
// it waits up to wait for a Put, then reports nothing new by returning nil.
// Consume semantics: a second call with no intervening Put returns nil.
func (l *Latest) TakeLatest(wait time.Duration) *Frame {
	if f := l.take(); f != nil {
		return f
	}
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-l.notify:
		return l.take()
	case <-timer.C:
		return nil
	}
}

func (l *Latest) take() *Frame {
	l.mu.Lock()
	f := l.pending
	l.pending = nil
	l.mu.Unlock()
	return f
}

// Drops reports how many frames were displaced before being consumed.
func (l *Latest) Drops() uint64 {
	return l.drops.Load()
}
