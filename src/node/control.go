package node

// ControlMessage is an out-of-band lifecycle command delivered through the
// node's control channel. It preempts whatever the loop is waiting on, but
// never an already-started pipeline call.
type ControlMessage int

const (
	// ForceReset removes the node from its network via the vault. What
	// happens next is governed by Config.RestartAfterReset.
	ForceReset ControlMessage = iota

	// Shutdown makes Run return cleanly.
	Shutdown
)

// String ...
func (m ControlMessage) String() string {
	switch m {
	case ForceReset:
		return "ForceReset"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}
