// Package pdu defines the access-layer protocol data units exchanged
// between the node and its message pipeline, and the unprovisioned beacon
// wire layout.
package pdu

import (
	"github.com/micromesh/micromesh/src/mesh"
)

// AccessMessage is a fully addressed access-layer message, ready for the
// pipeline to encrypt, segment and hand to the radio. It is immutable once
// constructed and consumed exactly once.
type AccessMessage struct {
	TTL        uint8
	NetworkKey mesh.NetworkKeyHandle
	IVI        uint8
	NID        uint8
	AKF        bool
	AID        mesh.AID
	Src        mesh.UnicastAddress
	Dst        mesh.Address
	Payload    []byte
}

// OutboundPublishMessage is an application-originated publication: a model
// on a local element wants its payload published according to the node's
// configured publication for that (element, model) pair. The node resolves
// it into an AccessMessage using the current network configuration; if no
// matching publication or application key exists it is silently dropped.
type OutboundPublishMessage struct {
	ElementAddress  mesh.UnicastAddress
	ModelIdentifier mesh.ModelIdentifier
	Payload         []byte
}
