package mesh

// NetworkKeyHandle refers to a network key held by the vault without
// exposing the key material itself. The node and the pipeline pass handles
// around; only the vault resolves them.
type NetworkKeyHandle uint16

// KeyIndex is the 12-bit global index of a network or application key as
// assigned during configuration.
type KeyIndex uint16

// AID is the 6-bit application key identifier derived from an application
// key. It travels in the clear on access messages so receivers can pick
// candidate keys for authentication.
type AID uint8
