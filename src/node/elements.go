package node

import (
	"context"
	"errors"

	"github.com/micromesh/micromesh/src/mailbox"
	"github.com/micromesh/micromesh/src/mesh"
	"github.com/micromesh/micromesh/src/pdu"
)

// ErrNotConnected is returned by application layers asked to publish before
// the node has handed over its publish capability.
var ErrNotConnected = errors.New("node: elements not connected")

// ElementsHandler is the application-model layer sitting on top of the
// node. Connect is invoked exactly once, on the node's first entry into the
// Provisioned state, handing the application its publish capability.
type ElementsHandler interface {
	Connect(ctx *AppElementsContext)
}

// AppElementsContext is the application layer's view of a provisioned node:
// the node's primary unicast address and a sender bound to the publish
// mailbox.
type AppElementsContext struct {
	sender  *mailbox.Sender[pdu.OutboundPublishMessage]
	address mesh.UnicastAddress
}

// Address returns the node's primary unicast address.
func (c *AppElementsContext) Address() mesh.UnicastAddress {
	return c.address
}

// Publish hands a publication to the node loop. It suspends while the
// publish mailbox is full; the loop resolves the message against the
// current configuration and drops it silently if nothing matches.
func (c *AppElementsContext) Publish(ctx context.Context, message pdu.OutboundPublishMessage) error {
	return c.sender.Send(ctx, message)
}
