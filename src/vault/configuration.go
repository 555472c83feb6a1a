package vault

import (
	"bytes"

	"github.com/ugorji/go/codec"

	"github.com/micromesh/micromesh/src/mesh"
)

// Configuration is the persisted state of a device: its identity (UUID and
// device key) plus, once provisioned, its network configuration.
type Configuration struct {
	DeviceUUID   string
	DeviceKeyHex string
	Sequence     uint32
	Network      *NetworkConfiguration
}

// NetworkConfiguration holds everything a provisioned node knows about its
// network: its unicast address, the IV index, and the key and publication
// material written by the provisioner and the configuration client.
type NetworkConfiguration struct {
	IVIndex        uint32
	UnicastAddress mesh.UnicastAddress
	NetworkKeys    []NetworkKeyDetails
	AppKeys        []AppKeyDetails
	Publications   []Publication
}

// NetworkKeyDetails describes one network key held by the vault. The key
// material itself never leaves the vault; the rest of the system refers to
// it through the Handle.
type NetworkKeyDetails struct {
	Handle mesh.NetworkKeyHandle
	Index  mesh.KeyIndex
	NID    uint8
}

// AppKeyDetails describes one application key: its global index, the AID
// derived from it, and the network key it is bound to.
type AppKeyDetails struct {
	Index       mesh.KeyIndex
	AID         mesh.AID
	BoundNetKey mesh.KeyIndex
}

// Publication is a configured rule mapping a local model's state changes to
// outbound messages at a target address.
type Publication struct {
	ElementAddress  mesh.UnicastAddress
	ModelIdentifier mesh.ModelIdentifier
	AppKeyIndex     mesh.KeyIndex
	PublishAddress  mesh.Address
	PublishTTL      uint8
}

// FindPublication returns the publication configured for the given element
// and model, or nil if there is none.
func (n *NetworkConfiguration) FindPublication(element mesh.UnicastAddress, model mesh.ModelIdentifier) *Publication {
	for i := range n.Publications {
		p := &n.Publications[i]
		if p.ElementAddress == element && p.ModelIdentifier == model {
			return p
		}
	}
	return nil
}

// FindAppKeyByIndex returns the application key with the given global index,
// or nil.
func (n *NetworkConfiguration) FindAppKeyByIndex(index mesh.KeyIndex) *AppKeyDetails {
	for i := range n.AppKeys {
		if n.AppKeys[i].Index == index {
			return &n.AppKeys[i]
		}
	}
	return nil
}

// FindNetworkKeyByIndex returns the network key with the given global index,
// or nil.
func (n *NetworkConfiguration) FindNetworkKeyByIndex(index mesh.KeyIndex) *NetworkKeyDetails {
	for i := range n.NetworkKeys {
		if n.NetworkKeys[i].Index == index {
			return &n.NetworkKeys[i]
		}
	}
	return nil
}

// Marshal - json encoding of Configuration
func (c *Configuration) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)

	jh := new(codec.JsonHandle)
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(c); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal - json decoding of Configuration
func (c *Configuration) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)

	jh := new(codec.JsonHandle)
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(c)
}
