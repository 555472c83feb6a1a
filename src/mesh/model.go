package mesh

import "fmt"

// CompanySIG is the company identifier of Bluetooth-SIG-defined models.
const CompanySIG uint16 = 0x0000

// ModelIdentifier identifies a model hosted by an element. SIG models use
// CompanySIG as the company identifier; vendor models use the vendor's
// registered company identifier.
type ModelIdentifier struct {
	Company uint16
	Model   uint16
}

// SIGModel returns the identifier of a SIG-defined model.
func SIGModel(model uint16) ModelIdentifier {
	return ModelIdentifier{Company: CompanySIG, Model: model}
}

// String ...
func (m ModelIdentifier) String() string {
	if m.Company == CompanySIG {
		return fmt.Sprintf("sig:0x%04X", m.Model)
	}
	return fmt.Sprintf("vendor:0x%04X:0x%04X", m.Company, m.Model)
}
