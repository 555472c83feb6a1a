package dummy

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/micromesh/micromesh/src/common"
	"github.com/micromesh/micromesh/src/net"
	"github.com/micromesh/micromesh/src/node"
	"github.com/micromesh/micromesh/src/pdu"
	"github.com/micromesh/micromesh/src/vault"
)

func TestDummyPipelineWithNode(t *testing.T) {
	logger := common.NewTestLogger(t, logrus.DebugLevel)

	conf := node.TestConfig(t)
	pipeline := NewPipeline(logger)
	elements := NewElements(logger)

	vlt := vault.NewConfigurationManager(vault.NewInmemStore(), logger)
	local, peer := net.NewInmemTransportPair()

	n := node.NewNode(conf, vlt, pipeline, local, local, elements, rand.Reader)
	if err := n.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()
	defer func() {
		cancel()
		<-errCh
	}()

	if err := peer.Transmit(ctx, []byte{0xAA, 0xBB}); err != nil {
		t.Fatalf("Transmit: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		inbound, _, _ := pipeline.Counts()
		if inbound >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pipeline never saw the inbound PDU")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The dummy pipeline never provisions, so the publish capability is
	// never handed over.
	err := elements.SubmitPublish(ctx, pdu.OutboundPublishMessage{})
	if !errors.Is(err, node.ErrNotConnected) {
		t.Fatalf("SubmitPublish: got %v, want ErrNotConnected", err)
	}
}
