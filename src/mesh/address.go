package mesh

import "fmt"

// Address is a 16-bit mesh network address. The top bits discriminate
// between unassigned, unicast, virtual and group addresses.
type Address uint16

// Unassigned is the address of a device that has not been provisioned.
const Unassigned Address = 0x0000

// IsUnicast reports whether the address identifies a single element.
func (a Address) IsUnicast() bool {
	return a != Unassigned && a&0x8000 == 0
}

// IsGroup reports whether the address is a group address.
func (a Address) IsGroup() bool {
	return a&0xC000 == 0xC000
}

// String ...
func (a Address) String() string {
	return fmt.Sprintf("0x%04X", uint16(a))
}

// UnicastAddress is an Address known to be unicast. It identifies exactly
// one element of one node.
type UnicastAddress uint16

// Address widens a UnicastAddress back to a plain Address.
func (u UnicastAddress) Address() Address {
	return Address(u)
}

// String ...
func (u UnicastAddress) String() string {
	return fmt.Sprintf("0x%04X", uint16(u))
}
