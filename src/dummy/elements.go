package dummy

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/micromesh/micromesh/src/node"
	"github.com/micromesh/micromesh/src/pdu"
)

// Elements is an application-model layer that just records the capability
// the node hands it. Publications can then be driven from the outside
// through SubmitPublish.
type Elements struct {
	sync.Mutex

	logger *logrus.Entry
	appCtx *node.AppElementsContext
}

// NewElements ...
func NewElements(logger *logrus.Logger) *Elements {
	return &Elements{
		logger: logger.WithField("prefix", "dummy-elements"),
	}
}

// Connect stores the context handed over on provisioning.
func (e *Elements) Connect(ctx *node.AppElementsContext) {
	e.Lock()
	e.appCtx = ctx
	e.Unlock()

	e.logger.WithField("address", ctx.Address()).Debug("Elements connected")
}

// Connected reports whether the node has handed over its publish
// capability.
func (e *Elements) Connected() bool {
	e.Lock()
	defer e.Unlock()
	return e.appCtx != nil
}

// SubmitPublish pushes a publication into the node loop. It fails before
// the node is provisioned.
func (e *Elements) SubmitPublish(ctx context.Context, message pdu.OutboundPublishMessage) error {
	e.Lock()
	appCtx := e.appCtx
	e.Unlock()

	if appCtx == nil {
		return node.ErrNotConnected
	}

	return appCtx.Publish(ctx, message)
}
