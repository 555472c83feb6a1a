// Package wake implements the single-slot wake primitive that the rest of
// the runtime's blocking points are built on.
//
// A Slot carries at most one pending wakeup. Signalling an already-signalled
// slot is a no-op, so bursts of events coalesce into a single wakeup. This
// matches a protocol timer or a single logical event source, where only the
// fact that something happened matters, not how many times.
package wake

import (
	"context"
	"errors"
	"sync"
)

// ErrTooManyWaiters is returned by Wait when another waiter is already
// parked on the slot. A Slot supports exactly one waiter at a time; two
// independent logical waiters must use two slots.
var ErrTooManyWaiters = errors.New("wake: a waiter is already registered on this slot")

// Slot is a single-item wake primitive with three states: idle, waiting and
// signalled. Signal may be called from any goroutine, including one standing
// in for an interrupt handler; all state transitions run under the mutex so
// a Signal racing a Wait is safe.
//
// The zero value is an idle Slot ready for use.
type Slot struct {
	mu       sync.Mutex
	signaled bool
	waiter   chan struct{}
}

// Signal marks the slot as signalled and wakes the parked waiter, if any.
// It never blocks. Signalling an idle or already-signalled slot with no
// waiter simply leaves the slot signalled; duplicate signals coalesce.
func (s *Slot) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signaled {
		return
	}

	s.signaled = true

	if s.waiter != nil {
		close(s.waiter)
		s.waiter = nil
	}
}

// Wait blocks until the slot is signalled, then consumes the signal and
// returns the slot to idle. If the slot is already signalled, Wait returns
// immediately. If another waiter is already parked, Wait returns
// ErrTooManyWaiters without disturbing it. If the context is cancelled
// first, Wait returns the context's error; a signal that arrives in the
// cancellation window is retained for the next Wait.
func (s *Slot) Wait(ctx context.Context) error {
	s.mu.Lock()

	if s.signaled {
		s.signaled = false
		s.mu.Unlock()
		return nil
	}

	if s.waiter != nil {
		s.mu.Unlock()
		return ErrTooManyWaiters
	}

	ch := make(chan struct{})
	s.waiter = ch
	s.mu.Unlock()

	select {
	case <-ch:
		s.mu.Lock()
		s.signaled = false
		s.mu.Unlock()
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		if s.waiter == ch {
			s.waiter = nil
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}
