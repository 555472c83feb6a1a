package state

import (
	"sync"
	"sync/atomic"
)

// State captures the provisioning phase of a node: Unprovisioned,
// Provisioning, or Provisioned.
type State uint32

const (
	// Unprovisioned is the state of a device that has no network identity.
	// It broadcasts unprovisioned beacons and waits for a provisioner to
	// open a provisioning exchange.
	Unprovisioned State = iota

	// Provisioning is the state of a device in an active provisioning
	// exchange, receiving its network identity and keys from a provisioner.
	Provisioning

	// Provisioned is the steady state of a device that holds a network
	// configuration and participates in access-layer messaging.
	Provisioned
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Unprovisioned:
		return "Unprovisioned"
	case Provisioning:
		return "Provisioning"
	case Provisioned:
		return "Provisioned"
	default:
		return "Unknown"
	}
}

// WGLIMIT is the maximum number of goroutines that can be launched through
// Manager.GoFunc
const WGLIMIT = 20

// Manager wraps a State with get and set methods. It is also used to limit
// the number of goroutines launched by the node, and to wait for all of
// them to complete.
type Manager struct {
	state   State
	wg      sync.WaitGroup
	wgCount int32
}

// GetState returns the current state.
func (m *Manager) GetState() State {
	stateAddr := (*uint32)(&m.state)
	return State(atomic.LoadUint32(stateAddr))
}

// SetState sets the state.
func (m *Manager) SetState(s State) {
	stateAddr := (*uint32)(&m.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// GoFunc launches a goroutine for a given function, if there are currently
// less than WGLIMIT running. It increments the waitgroup.
func (m *Manager) GoFunc(f func()) {
	tempWgCount := atomic.LoadInt32(&m.wgCount)
	if tempWgCount < WGLIMIT {
		m.wg.Add(1)
		atomic.AddInt32(&m.wgCount, 1)
		go func() {
			defer m.wg.Done()
			atomic.AddInt32(&m.wgCount, -1)
			f()
		}()
	}
}

// WaitRoutines waits for all the goroutines in the waitgroup.
func (m *Manager) WaitRoutines() {
	m.wg.Wait()
}
