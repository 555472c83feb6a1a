package node

import (
	"context"

	"github.com/micromesh/micromesh/src/node/state"
	"github.com/micromesh/micromesh/src/pdu"
)

// Pipeline performs the per-message cryptographic and segmentation
// processing the node loop drives, along with the retransmission
// bookkeeping for unacknowledged segments. The node treats it as a black
// box: it hands PDUs in and out and keeps the pipeline informed of state
// transitions, nothing more.
type Pipeline interface {
	// ProcessInbound consumes one raw PDU from the radio. When the PDU
	// completes a provisioning step the pipeline returns the node's next
	// state with ok set.
	ProcessInbound(ctx context.Context, payload []byte) (next state.State, ok bool, err error)

	// ProcessOutbound encrypts, segments and transmits one access message.
	ProcessOutbound(ctx context.Context, message *pdu.AccessMessage) error

	// TryRetransmit resends the last outbound PDU still waiting for an
	// acknowledgement, if any.
	TryRetransmit(ctx context.Context) error

	// State informs the pipeline of a node state transition so it can keep
	// its segmentation and retry bookkeeping in sync.
	State(s state.State)
}
