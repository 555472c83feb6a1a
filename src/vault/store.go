package vault

import (
	"errors"
	"fmt"
)

// ErrNoConfiguration is returned by Store.Load when the store holds no
// configuration at all, i.e. on a device's very first boot.
var ErrNoConfiguration = errors.New("vault: no configuration in store")

// StoreErr wraps a storage failure with the operation that produced it.
type StoreErr struct {
	Op  string
	Err error
}

// Error ...
func (e StoreErr) Error() string {
	return fmt.Sprintf("vault store %s: %v", e.Op, e.Err)
}

// Unwrap ...
func (e StoreErr) Unwrap() error {
	return e.Err
}

// Store persists a device's Configuration. Implementations must survive the
// process: a Load after a Save in a previous run returns the saved
// configuration. Reset wipes the store back to the first-boot state.
type Store interface {
	Load() (*Configuration, error)
	Save(*Configuration) error
	Reset() error
	Close() error
}
