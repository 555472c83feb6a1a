// Package dummy provides in-memory stand-ins for the application-facing
// parts of a mesh node: a pipeline that logs instead of encrypting, and an
// elements handler that records what it is given. They are used by the CLI
// when no real application is attached, and by tests.
package dummy

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/micromesh/micromesh/src/node/state"
	"github.com/micromesh/micromesh/src/pdu"
)

// Pipeline is a pass-through message pipeline. It performs no cryptography
// and never completes provisioning on its own; it logs the traffic the node
// loop hands it and keeps counters. Useful for watching an unprovisioned
// node beacon against a real radio bridge.
type Pipeline struct {
	sync.Mutex

	logger *logrus.Entry

	inboundCount    int
	outboundCount   int
	retransmitCount int
}

// NewPipeline ...
func NewPipeline(logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.WithField("prefix", "dummy-pipeline"),
	}
}

// ProcessInbound logs the PDU and reports no state transition.
func (p *Pipeline) ProcessInbound(ctx context.Context, payload []byte) (state.State, bool, error) {
	p.Lock()
	p.inboundCount++
	p.Unlock()

	p.logger.WithFields(logrus.Fields{
		"length":  len(payload),
		"payload": payload,
	}).Debug("Inbound PDU")

	return 0, false, nil
}

// ProcessOutbound logs the access message and drops it.
func (p *Pipeline) ProcessOutbound(ctx context.Context, message *pdu.AccessMessage) error {
	p.Lock()
	p.outboundCount++
	p.Unlock()

	p.logger.WithFields(logrus.Fields{
		"src": message.Src,
		"dst": message.Dst,
		"ttl": message.TTL,
	}).Debug("Outbound access message")

	return nil
}

// TryRetransmit counts the tick and does nothing.
func (p *Pipeline) TryRetransmit(ctx context.Context) error {
	p.Lock()
	p.retransmitCount++
	p.Unlock()

	return nil
}

// State logs the transition.
func (p *Pipeline) State(s state.State) {
	p.logger.WithField("state", s.String()).Debug("State")
}

// Counts returns the inbound, outbound and retransmit counters.
func (p *Pipeline) Counts() (inbound, outbound, retransmit int) {
	p.Lock()
	defer p.Unlock()
	return p.inboundCount, p.outboundCount, p.retransmitCount
}
