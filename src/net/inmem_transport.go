package net

import (
	"context"
	"errors"
	"sync"

	"github.com/micromesh/micromesh/src/wake"
)

// ErrTransportClosed is returned by operations on a closed transport.
var ErrTransportClosed = errors.New("net: transport closed")

// InmemTransport implements the Transport interface in memory, to allow a
// node to be tested without a radio. Transports come in coupled pairs: what
// one endpoint transmits, the other receives.
//
// Delivery uses a wake.Slot: Transmit appends to the peer's queue and
// signals the peer's slot, standing in for the radio interrupt waking the
// node loop.
type InmemTransport struct {
	mu     sync.Mutex
	queue  [][]byte
	slot   wake.Slot
	peer   *InmemTransport
	closed bool
}

// NewInmemTransportPair returns two coupled in-memory transports.
func NewInmemTransportPair() (*InmemTransport, *InmemTransport) {
	a := &InmemTransport{}
	b := &InmemTransport{}
	a.peer = b
	b.peer = a
	return a, b
}

// Transmit implements the Transmitter interface. The PDU lands in the peer
// endpoint's receive queue.
func (t *InmemTransport) Transmit(ctx context.Context, bytes []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}

	pdu := make([]byte, len(bytes))
	copy(pdu, bytes)

	t.peer.mu.Lock()
	t.peer.queue = append(t.peer.queue, pdu)
	t.peer.mu.Unlock()

	t.peer.slot.Signal()

	return nil
}

// Receive implements the Receiver interface.
func (t *InmemTransport) Receive(ctx context.Context) ([]byte, error) {
	for {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return nil, ErrTransportClosed
		}
		if len(t.queue) > 0 {
			pdu := t.queue[0]
			t.queue = t.queue[1:]
			t.mu.Unlock()
			return pdu, nil
		}
		t.mu.Unlock()

		if err := t.slot.Wait(ctx); err != nil {
			return nil, err
		}
	}
}

// Close implements the Transport interface.
func (t *InmemTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	// Wake a blocked Receive so it observes the closed flag.
	t.slot.Signal()

	return nil
}
