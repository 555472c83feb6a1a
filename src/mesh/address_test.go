package mesh

import "testing"

func TestAddressClassification(t *testing.T) {
	cases := []struct {
		addr    Address
		unicast bool
		group   bool
	}{
		{Unassigned, false, false},
		{0x0001, true, false},
		{0x7FFF, true, false},
		{0x8000, false, false}, // virtual
		{0xC000, false, true},
		{0xFFFF, false, true},
	}

	for _, c := range cases {
		if got := c.addr.IsUnicast(); got != c.unicast {
			t.Errorf("%s IsUnicast: got %v, want %v", c.addr, got, c.unicast)
		}
		if got := c.addr.IsGroup(); got != c.group {
			t.Errorf("%s IsGroup: got %v, want %v", c.addr, got, c.group)
		}
	}
}
