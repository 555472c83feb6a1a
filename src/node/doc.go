// Package node implements the reactive core of a mesh device: the
// provisioning state machine and the cooperative event loop that drives it.
//
// # State machine
//
// A node is always in exactly one of three states, defined in the state
// package: Unprovisioned, Provisioning, or Provisioned. Each state has its
// own loop routine. The Unprovisioned loop broadcasts the unprovisioned
// beacon and waits for a provisioner; the Provisioning loop shuttles PDUs
// of the provisioning exchange and retransmits the last unacknowledged one
// on a timer; the Provisioned loop multiplexes inbound radio traffic, the
// acknowledgement timer, and the two application-facing mailboxes. State
// transitions are decided by the pipeline as a result of inbound
// processing; the node applies them and keeps the pipeline informed.
//
// # Event sources and ordering
//
// Every loop iteration races its event sources with a select. Within one
// mailbox, delivery is FIFO; across sources that become ready in the same
// scheduling step, the choice is unordered and must not be relied upon.
//
// # Concurrency model
//
// Protocol state, the vault and the pipeline are mutated only from the
// loop. Producers reach the loop exclusively through the bounded mailboxes
// (backpressure suspends them when full), and the radio reaches it through
// a single receive pump goroutine. The control channel carries out-of-band
// ForceReset/Shutdown commands that preempt whatever the loop is waiting
// on, but never an already-started pipeline call.
//
// # Message processing
//
// The cryptographic and segmentation work on every message is delegated to
// the Pipeline interface, which the node treats as a black box. Publish
// messages from the application are first resolved against the vault's
// publication and key configuration; unresolvable publications are dropped
// silently.
package node
