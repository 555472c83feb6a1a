package pdu

import "github.com/google/uuid"

// Advertising data constants for the unprovisioned device beacon.
const (
	// BeaconAdvLength is the AD structure length octet of the beacon.
	BeaconAdvLength = 20

	// MeshBeacon is the AD type of a mesh beacon.
	MeshBeacon = 0x2B

	// BeaconTypeUnprovisioned marks an unprovisioned device beacon.
	BeaconTypeUnprovisioned = 0x00

	// BeaconMaxLength is the capacity of an advertising buffer. The encoded
	// unprovisioned beacon is shorter; the buffer is sized for the radio.
	BeaconMaxLength = 31
)

// Trailing OOB-information octets of the unprovisioned beacon.
var beaconTrailer = [2]byte{0xA0, 0x40}

// UnprovisionedBeacon encodes the advertisement an unprovisioned device
// broadcasts while waiting for a provisioner:
//
//	[length, MeshBeacon, beacon type, 16-octet device UUID, OOB info]
func UnprovisionedBeacon(deviceUUID uuid.UUID) []byte {
	adv := make([]byte, 0, BeaconMaxLength)
	adv = append(adv, BeaconAdvLength, MeshBeacon, BeaconTypeUnprovisioned)
	adv = append(adv, deviceUUID[:]...)
	adv = append(adv, beaconTrailer[:]...)
	return adv
}
