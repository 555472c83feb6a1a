// Package net defines the radio capabilities the node loop drives, plus the
// concrete transports used in tests and development: an in-memory loopback
// pair and a TCP client for an external radio gateway.
//
// The node only ever sees raw advertising PDUs; framing below that level is
// the transport's business.
package net

import "context"

// MaxPDU is the largest PDU a Receiver may deliver, in octets.
const MaxPDU = 384

// Transmitter sends one raw PDU to the radio.
type Transmitter interface {
	Transmit(ctx context.Context, bytes []byte) error
}

// Receiver delivers one raw PDU per call, suspending until one arrives.
type Receiver interface {
	Receive(ctx context.Context) ([]byte, error)
}

// Transport combines both directions of a radio link.
type Transport interface {
	Transmitter
	Receiver

	// Close shuts the link down; blocked Receive calls return an error.
	Close() error
}
