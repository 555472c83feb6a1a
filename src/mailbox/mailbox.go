// Package mailbox implements the bounded FIFO mailboxes that decouple
// message producers from the node's event loop.
//
// A Mailbox holds at most Capacity items. Producers suspend when the mailbox
// is full and the single consumer suspends when it is empty; the mailbox
// itself never drops an item. Backpressure therefore lands on producers
// rather than on the loop.
//
// A Mailbox is built in two phases: it is declared wherever it needs to live,
// then Initialize is called exactly once, before any producer or the
// consumer exists, and returns distinct Sender and Receiver handles. The
// Receiver is handed to the one consumer; Senders may be copied freely among
// producers.
package mailbox

import (
	"context"
	"errors"
)

// Capacity is the fixed number of slots in every mailbox.
const Capacity = 3

// ErrNotInitialized is returned when handles are requested from a mailbox
// whose Initialize method has not been called.
var ErrNotInitialized = errors.New("mailbox: not initialized")

// Mailbox is a fixed-capacity FIFO queue with suspending send and receive.
// Declare it where it needs to live and call Initialize before use.
type Mailbox[T any] struct {
	ch chan T
}

// Initialize allocates the mailbox's queue and returns its Sender and
// Receiver handles. It must be called exactly once, before the loop starts.
func (m *Mailbox[T]) Initialize() (*Sender[T], *Receiver[T]) {
	m.ch = make(chan T, Capacity)
	return &Sender[T]{ch: m.ch}, &Receiver[T]{ch: m.ch}
}

// Sender is a producer handle. Multiple producers may share copies of the
// same Sender.
type Sender[T any] struct {
	ch chan<- T
}

// Send enqueues an item, suspending while the mailbox is full. It returns
// the context's error if the context is cancelled before a slot frees up.
func (s *Sender[T]) Send(ctx context.Context, item T) error {
	if s == nil || s.ch == nil {
		return ErrNotInitialized
	}
	select {
	case s.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receiver is the consumer handle. Exactly one consumer may use it; sharing
// a Receiver between goroutines breaks the mailbox's delivery contract.
type Receiver[T any] struct {
	ch <-chan T
}

// Next removes and returns the oldest item, suspending while the mailbox is
// empty. It returns the context's error if the context is cancelled first.
func (r *Receiver[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if r == nil || r.ch == nil {
		return zero, ErrNotInitialized
	}
	select {
	case item := <-r.ch:
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// C exposes the delivery channel so the consumer can race the mailbox
// against other event sources in a select. Items read from C are consumed
// exactly as if they had been returned by Next.
func (r *Receiver[T]) C() <-chan T {
	return r.ch
}
