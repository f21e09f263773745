// Package mailbox provides a single-slot mailbox where the most recent value
// wins.
package mailbox

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Take once the mailbox is closed.
var ErrClosed = errors.New("mailbox: closed")

// Mailbox holds at most one value. Put overwrites an untaken value, so a
// slow consumer only ever sees the latest one. It is safe for one or more
// producers and a single consumer.
type Mailbox[T any] struct {
	mu     sync.Mutex
	value  T
	full   bool
	closed bool

	// ready has capacity one and holds a token while the slot is full or the
	// mailbox is closed.
	ready chan struct{}
}

// New returns an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Put stores v, replacing any value not yet taken. It reports whether an
// earlier value was overwritten. Put on a closed mailbox is a no-op.
func (m *Mailbox[T]) Put(v T) (replaced bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	replaced = m.full
	m.value, m.full = v, true
	m.signal()
	return replaced
}

// Take blocks until a value is available and removes it. It returns
// ErrClosed once the mailbox is closed, dropping any untaken value, and the
// context's error if ctx ends first.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	var zero T
	for {
		m.mu.Lock()
		switch {
		case m.closed:
			m.mu.Unlock()
			return zero, ErrClosed
		case m.full:
			v := m.value
			m.value, m.full = zero, false
			m.mu.Unlock()
			return v, nil
		}
		m.mu.Unlock()

		select {
		case <-m.ready:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Close wakes the consumer and makes every later Take fail.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	var zero T
	m.value, m.full = zero, false
	m.signal()
}

// signal must be called with mu held.
func (m *Mailbox[T]) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}
