package net

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TCPTransport implements the Transport interface over a TCP connection to
// an external radio gateway, for running a node on a development host. PDUs
// are framed with a big-endian uint16 length prefix.
type TCPTransport struct {
	conn   net.Conn
	logger *logrus.Entry

	writeLock sync.Mutex
	readLock  sync.Mutex
}

// NewTCPTransport dials the radio gateway at addr.
func NewTCPTransport(addr string, timeout time.Duration, logger *logrus.Logger) (*TCPTransport, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}

	return &TCPTransport{
		conn:   conn,
		logger: logger.WithField("prefix", "radio"),
	}, nil
}

// watchCancellation bounds a blocking conn operation with the context: the
// deadline is taken from ctx if it carries one, and a cancellation expires
// the deadline immediately so the blocked read or write returns. The
// returned stop function must be called once the operation completes.
func watchCancellation(ctx context.Context, setDeadline func(time.Time) error) func() {
	if deadline, ok := ctx.Deadline(); ok {
		setDeadline(deadline)
	} else {
		setDeadline(time.Time{})
	}

	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			setDeadline(time.Now())
		case <-done:
		}
	}()

	return func() { close(done) }
}

// Transmit implements the Transmitter interface.
func (t *TCPTransport) Transmit(ctx context.Context, bytes []byte) error {
	if len(bytes) > MaxPDU {
		return fmt.Errorf("net: PDU of %d octets exceeds the %d octet limit", len(bytes), MaxPDU)
	}

	t.writeLock.Lock()
	defer t.writeLock.Unlock()

	stop := watchCancellation(ctx, t.conn.SetWriteDeadline)
	defer stop()

	frame := make([]byte, 2+len(bytes))
	binary.BigEndian.PutUint16(frame, uint16(len(bytes)))
	copy(frame[2:], bytes)

	if _, err := t.conn.Write(frame); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	return nil
}

// Receive implements the Receiver interface.
func (t *TCPTransport) Receive(ctx context.Context) ([]byte, error) {
	t.readLock.Lock()
	defer t.readLock.Unlock()

	stop := watchCancellation(ctx, t.conn.SetReadDeadline)
	defer stop()

	var header [2]byte
	if _, err := io.ReadFull(t.conn, header[:]); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	length := binary.BigEndian.Uint16(header[:])
	if length > MaxPDU {
		return nil, fmt.Errorf("net: gateway framed %d octets, limit is %d", length, MaxPDU)
	}

	pdu := make([]byte, length)
	if _, err := io.ReadFull(t.conn, pdu); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	return pdu, nil
}

// Close implements the Transport interface.
func (t *TCPTransport) Close() error {
	return t.conn.Close()
}
