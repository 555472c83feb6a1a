package node

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/micromesh/micromesh/src/mailbox"
	"github.com/micromesh/micromesh/src/net"
	"github.com/micromesh/micromesh/src/node/state"
	"github.com/micromesh/micromesh/src/pdu"
	"github.com/micromesh/micromesh/src/vault"
)

// errShutdown makes a Shutdown control message unwind the loop; Run
// translates it into a clean return.
var errShutdown = errors.New("node: shutdown requested")

// received carries one Receiver result from the receive pump into the loop.
type received struct {
	payload []byte
	err     error
}

// Node is the protocol state machine of a mesh device. It owns the
// protocol state, the outbound and publish mailboxes and the control
// channel, and drives the per-state event loop. All protocol mutation is
// confined to the loop; the only cross-goroutine traffic goes through the
// mailboxes and the receive pump.
type Node struct {
	state.Manager

	conf   *Config
	logger *logrus.Entry

	vault    *vault.ConfigurationManager
	pipeline Pipeline

	transmitter net.Transmitter
	receiver    net.Receiver
	rng         io.Reader

	elements          ElementsHandler
	elementsConnected bool

	outboundMb mailbox.Mailbox[pdu.AccessMessage]
	publishMb  mailbox.Mailbox[pdu.OutboundPublishMessage]
	controlMb  mailbox.Mailbox[ControlMessage]

	outboundSender *mailbox.Sender[pdu.AccessMessage]
	outbound       *mailbox.Receiver[pdu.AccessMessage]
	publishSender  *mailbox.Sender[pdu.OutboundPublishMessage]
	publish        *mailbox.Receiver[pdu.OutboundPublishMessage]
	controlSender  *mailbox.Sender[ControlMessage]
	control        *mailbox.Receiver[ControlMessage]

	recvCh chan received

	start       time.Time
	beaconsSent uint64
	pdusIn      uint64
	pdusOut     uint64
	retransmits uint64
}

// NewNode is a factory method that returns a Node instance
func NewNode(conf *Config,
	vlt *vault.ConfigurationManager,
	pipeline Pipeline,
	transmitter net.Transmitter,
	receiver net.Receiver,
	elements ElementsHandler,
	rng io.Reader,
) *Node {
	logger := conf.Logger.WithField("prefix", "node")
	if conf.Moniker != "" {
		logger = logger.WithField("moniker", conf.Moniker)
	}

	node := Node{
		conf:        conf,
		logger:      logger,
		vault:       vlt,
		pipeline:    pipeline,
		transmitter: transmitter,
		receiver:    receiver,
		elements:    elements,
		rng:         rng,
		recvCh:      make(chan received),
	}

	return &node
}

// Init runs the startup sequence: the mailboxes are built, the persisted
// configuration is loaded (with a single forced-reset retry on failure),
// and the pipeline is told the initial state. If the configuration says the
// device is already provisioned the node starts out Provisioned with its
// application elements connected.
func (n *Node) Init() error {
	// Two-phase mailbox construction, before any producer or the loop
	// exists.
	n.outboundSender, n.outbound = n.outboundMb.Initialize()
	n.publishSender, n.publish = n.publishMb.Initialize()
	n.controlSender, n.control = n.controlMb.Initialize()

	if err := n.vault.Initialize(n.rng); err != nil {
		n.logger.WithError(err).Error("Loading configuration")
		n.logger.Warn("Unable to load configuration; attempting reset")

		n.vault.Reset()

		if err := n.vault.Initialize(n.rng); err != nil {
			return err
		}
	}

	if n.vault.IsProvisioned() {
		n.logger.Debug("Already provisioned")
		n.SetState(state.Provisioned)
		n.connectElements()
	}

	n.pipeline.State(n.GetState())

	return nil
}

// Run invokes the main loop of the node. It blocks until the context is
// cancelled, a Shutdown control message arrives (nil return), or an
// iteration fails (the error is returned and the node stops).
func (n *Node) Run(ctx context.Context) error {
	n.start = time.Now()

	ctx, cancel := context.WithCancel(ctx)

	// LIFO: cancel first so the receive pump unblocks before we wait on it.
	defer n.WaitRoutines()
	defer cancel()

	n.GoFunc(func() { n.receivePump(ctx) })

	for {
		if err := n.doLoop(ctx); err != nil {
			if err == errShutdown {
				n.logger.Debug("Shutdown")
				return nil
			}
			return err
		}
	}
}

// receivePump feeds the Receiver into the loop's select. It stops after
// delivering a receive error; the loop surfaces that error and stops too.
func (n *Node) receivePump(ctx context.Context) {
	for {
		payload, err := n.receiver.Receive(ctx)

		select {
		case n.recvCh <- received{payload: payload, err: err}:
		case <-ctx.Done():
			return
		}

		if err != nil {
			return
		}
	}
}

// doLoop executes one full state-dispatch iteration and applies the
// resulting transition, if any.
func (n *Node) doLoop(ctx context.Context) error {
	current := n.GetState()

	var next state.State
	var ok bool
	var err error

	switch current {
	case state.Unprovisioned:
		next, ok, err = n.loopUnprovisioned(ctx)
	case state.Provisioning:
		next, ok, err = n.loopProvisioning(ctx)
	case state.Provisioned:
		next, ok, err = n.loopProvisioned(ctx)
	}

	if err != nil {
		return err
	}

	if ok {
		if next == state.Provisioned && current != state.Provisioned && !n.elementsConnected {
			// only connect during the first transition.
			n.connectElements()
		}

		if next != current {
			n.logger.WithFields(logrus.Fields{
				"from": current.String(),
				"to":   next.String(),
			}).Debug("State transition")

			n.SetState(next)
			n.pipeline.State(next)

			n.logStats()
		}
	}

	return nil
}

// loopUnprovisioned broadcasts the unprovisioned beacon and waits for
// either inbound traffic or the beacon tick. The tick simply re-enters this
// loop, which re-broadcasts. The select's choice among concurrently ready
// sources is unordered.
func (n *Node) loopUnprovisioned(ctx context.Context) (state.State, bool, error) {
	if err := n.transmitUnprovisionedBeacon(ctx); err != nil {
		return 0, false, err
	}

	select {
	case in := <-n.recvCh:
		if in.err != nil {
			return 0, false, in.err
		}
		return n.processInbound(ctx, in.payload)

	case <-time.After(n.conf.BeaconInterval):
		return 0, false, nil

	case message := <-n.control.C():
		return 0, false, n.handleControl(ctx, message)

	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
}

// loopProvisioning waits for the provisioner's next PDU, retransmitting the
// last unacknowledged provisioning PDU on every tick. Retransmission
// failures are propagated, not swallowed.
func (n *Node) loopProvisioning(ctx context.Context) (state.State, bool, error) {
	select {
	case in := <-n.recvCh:
		if in.err != nil {
			return 0, false, in.err
		}
		return n.processInbound(ctx, in.payload)

	case <-time.After(n.conf.RetransmitInterval):
		atomic.AddUint64(&n.retransmits, 1)
		return 0, false, n.pipeline.TryRetransmit(ctx)

	case message := <-n.control.C():
		return 0, false, n.handleControl(ctx, message)

	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
}

// loopProvisioned races inbound traffic and the acknowledgement timer
// against the outbound and publish mailboxes. The select's choice among
// concurrently ready sources is unordered.
func (n *Node) loopProvisioned(ctx context.Context) (state.State, bool, error) {
	select {
	case in := <-n.recvCh:
		if in.err != nil {
			return 0, false, in.err
		}
		return n.processInbound(ctx, in.payload)

	case <-time.After(n.conf.AckTimeout):
		atomic.AddUint64(&n.retransmits, 1)
		return 0, false, n.pipeline.TryRetransmit(ctx)

	case message := <-n.outbound.C():
		atomic.AddUint64(&n.pdusOut, 1)
		return 0, false, n.pipeline.ProcessOutbound(ctx, &message)

	case publish := <-n.publish.C():
		return 0, false, n.publishMessage(ctx, publish)

	case message := <-n.control.C():
		return 0, false, n.handleControl(ctx, message)

	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
}

func (n *Node) processInbound(ctx context.Context, payload []byte) (state.State, bool, error) {
	atomic.AddUint64(&n.pdusIn, 1)
	return n.pipeline.ProcessInbound(ctx, payload)
}

func (n *Node) transmitUnprovisionedBeacon(ctx context.Context) error {
	adv := pdu.UnprovisionedBeacon(n.vault.UUID())

	if err := n.transmitter.Transmit(ctx, adv); err != nil {
		return err
	}

	atomic.AddUint64(&n.beaconsSent, 1)

	return nil
}

// publishMessage resolves an application publication against the current
// network configuration and hands the resulting access message to the
// pipeline. A publication with no matching publication entry, application
// key or network key is dropped silently; there is no retry.
func (n *Node) publishMessage(ctx context.Context, publish pdu.OutboundPublishMessage) error {
	network := n.vault.Network()
	if network == nil {
		return nil
	}

	publication := network.FindPublication(publish.ElementAddress, publish.ModelIdentifier)
	if publication == nil {
		n.logger.WithFields(logrus.Fields{
			"element": publish.ElementAddress.String(),
			"model":   publish.ModelIdentifier.String(),
		}).Debug("No publication; dropping")
		return nil
	}

	// An unassigned (or otherwise unroutable) publish address means the
	// publication is disabled.
	if !publication.PublishAddress.IsUnicast() && !publication.PublishAddress.IsGroup() {
		n.logger.WithField("publish_address", publication.PublishAddress.String()).Debug("Publication disabled; dropping")
		return nil
	}

	appKey := network.FindAppKeyByIndex(publication.AppKeyIndex)
	if appKey == nil {
		n.logger.WithField("app_key_index", publication.AppKeyIndex).Debug("No app key; dropping")
		return nil
	}

	netKey := network.FindNetworkKeyByIndex(appKey.BoundNetKey)
	if netKey == nil {
		n.logger.WithField("net_key_index", appKey.BoundNetKey).Debug("No network key; dropping")
		return nil
	}

	message := &pdu.AccessMessage{
		TTL:        publication.PublishTTL,
		NetworkKey: netKey.Handle,
		IVI:        uint8(network.IVIndex & 0x01),
		NID:        netKey.NID,
		AKF:        true,
		AID:        appKey.AID,
		Src:        publish.ElementAddress,
		Dst:        publication.PublishAddress,
		Payload:    publish.Payload,
	}

	atomic.AddUint64(&n.pdusOut, 1)

	return n.pipeline.ProcessOutbound(ctx, message)
}

func (n *Node) handleControl(ctx context.Context, message ControlMessage) error {
	n.logger.WithField("message", message.String()).Debug("Control message")

	switch message {
	case ForceReset:
		if err := n.vault.NodeReset(ctx); err != nil {
			return err
		}
		if n.conf.RestartAfterReset {
			return n.restart()
		}
		// Recovery is the supervisor's job; keep looping until it acts.
		return nil

	case Shutdown:
		return errShutdown
	}

	return nil
}

// restart re-runs the startup sequence in place after a ForceReset, with
// the same single reset-retry as Init.
func (n *Node) restart() error {
	if err := n.vault.Initialize(n.rng); err != nil {
		n.logger.WithError(err).Error("Reloading configuration")

		n.vault.Reset()

		if err := n.vault.Initialize(n.rng); err != nil {
			return err
		}
	}

	next := state.Unprovisioned
	if n.vault.IsProvisioned() {
		next = state.Provisioned
	}

	n.SetState(next)
	n.pipeline.State(next)

	return nil
}

func (n *Node) connectElements() {
	address, ok := n.vault.UnicastAddress()
	if !ok {
		n.logger.Error("Connecting elements without a unicast address")
		return
	}

	n.elements.Connect(&AppElementsContext{
		sender:  n.publishSender,
		address: address,
	})

	n.elementsConnected = true
}

// ControlSender returns the producer handle of the control channel. Valid
// after Init.
func (n *Node) ControlSender() *mailbox.Sender[ControlMessage] {
	return n.controlSender
}

// OutboundSender returns the producer handle of the outbound mailbox, used
// by subsystems that already hold a fully addressed AccessMessage. Valid
// after Init.
func (n *Node) OutboundSender() *mailbox.Sender[pdu.AccessMessage] {
	return n.outboundSender
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	timeElapsed := time.Since(n.start)

	s := map[string]string{
		"moniker":      n.conf.Moniker,
		"state":        n.GetState().String(),
		"uuid":         n.vault.UUID().String(),
		"provisioned":  strconv.FormatBool(n.vault.IsProvisioned()),
		"uptime":       timeElapsed.String(),
		"beacons_sent": strconv.FormatUint(atomic.LoadUint64(&n.beaconsSent), 10),
		"pdus_in":      strconv.FormatUint(atomic.LoadUint64(&n.pdusIn), 10),
		"pdus_out":     strconv.FormatUint(atomic.LoadUint64(&n.pdusOut), 10),
		"retransmits":  strconv.FormatUint(atomic.LoadUint64(&n.retransmits), 10),
	}

	return s
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"state":        stats["state"],
		"provisioned":  stats["provisioned"],
		"beacons_sent": stats["beacons_sent"],
		"pdus_in":      stats["pdus_in"],
		"pdus_out":     stats["pdus_out"],
		"retransmits":  stats["retransmits"],
	}).Debug("Stats")
}
