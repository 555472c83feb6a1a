// Package vault manages a device's persisted configuration: its identity
// (UUID and device key-pair) and, once provisioned, its network state
// (network keys, application keys, publications, unicast address).
//
// The node and the message pipeline treat the vault as the single source of
// truth for provisioning state. Key material is referenced through handles;
// it never travels through the rest of the system.
package vault

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/micromesh/micromesh/src/crypto/keys"
	"github.com/micromesh/micromesh/src/mesh"
)

// ConfigurationManager loads, caches and persists a device Configuration.
//
// Reads may come from outside the node's loop (the HTTP service), so access
// to the cached configuration is guarded; all mutation still happens from
// the loop's single logical thread.
type ConfigurationManager struct {
	mu sync.RWMutex

	store  Store
	logger *logrus.Entry

	current   *Configuration
	deviceKey *ecdsa.PrivateKey
}

// NewConfigurationManager ...
func NewConfigurationManager(store Store, logger *logrus.Logger) *ConfigurationManager {
	return &ConfigurationManager{
		store:  store,
		logger: logger.WithField("prefix", "vault"),
	}
}

// Initialize loads the persisted configuration, creating and persisting a
// fresh identity (UUID and device key) on first boot. It draws randomness
// from rng so the embedding process can supply a hardware RNG. A load
// failure other than first boot is returned to the caller, which may Reset
// and try again.
func (c *ConfigurationManager) Initialize(rng io.Reader) error {
	conf, err := c.store.Load()

	switch err {
	case nil:
		key, err := keys.ParseHex(conf.DeviceKeyHex)
		if err != nil {
			return StoreErr{Op: "load", Err: err}
		}
		if _, err := uuid.Parse(conf.DeviceUUID); err != nil {
			return StoreErr{Op: "load", Err: err}
		}

		c.mu.Lock()
		c.current = conf
		c.deviceKey = key
		c.mu.Unlock()

		c.logger.WithFields(logrus.Fields{
			"uuid":        conf.DeviceUUID,
			"provisioned": conf.Network != nil,
		}).Debug("Loaded configuration")

		return nil

	case ErrNoConfiguration:
		return c.initializeFresh(rng)

	default:
		return err
	}
}

func (c *ConfigurationManager) initializeFresh(rng io.Reader) error {
	deviceUUID, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return err
	}

	key, err := keys.GenerateDeviceKey(rng)
	if err != nil {
		return err
	}

	conf := &Configuration{
		DeviceUUID:   deviceUUID.String(),
		DeviceKeyHex: keys.DumpHex(key),
	}

	if err := c.store.Save(conf); err != nil {
		return err
	}

	c.mu.Lock()
	c.current = conf
	c.deviceKey = key
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"uuid":       conf.DeviceUUID,
		"device_key": hex.EncodeToString(keys.PublicKeyBytes(&key.PublicKey)),
	}).Debug("Created fresh configuration")

	return nil
}

// Reset wipes the store back to the first-boot state. It is the recovery
// path for a corrupt configuration; Initialize must be called again
// afterwards.
func (c *ConfigurationManager) Reset() {
	if err := c.store.Reset(); err != nil {
		c.logger.WithError(err).Error("Resetting store")
	}

	c.mu.Lock()
	c.current = nil
	c.deviceKey = nil
	c.mu.Unlock()
}

// NodeReset removes the device from its network: the network configuration
// is discarded and the change persisted, while the device identity is kept.
// The device returns to the unprovisioned state on its next startup.
func (c *ConfigurationManager) NodeReset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}

	// Persist first; the cached view must not diverge from the store if
	// the save fails.
	reset := *c.current
	reset.Network = nil
	reset.Sequence = 0

	if err := c.store.Save(&reset); err != nil {
		return err
	}

	c.current = &reset

	c.logger.Debug("Node reset")

	return nil
}

// Close releases the underlying store.
func (c *ConfigurationManager) Close() error {
	return c.store.Close()
}

// IsProvisioned reports whether the device holds a network configuration.
func (c *ConfigurationManager) IsProvisioned() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil && c.current.Network != nil
}

// Network returns the current network configuration, or nil when the device
// is not provisioned.
func (c *ConfigurationManager) Network() *NetworkConfiguration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	return c.current.Network
}

// SetNetwork installs a network configuration, marking the device
// provisioned, and persists it. It is called by the provisioning side of
// the pipeline when provisioning completes, and by configuration handlers
// when keys or publications change.
func (c *ConfigurationManager) SetNetwork(network *NetworkConfiguration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return ErrNoConfiguration
	}

	c.current.Network = network

	return c.store.Save(c.current)
}

// UUID returns the device UUID. It is only valid after Initialize.
func (c *ConfigurationManager) UUID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil {
		return uuid.UUID{}
	}

	// Validated during Initialize.
	id, _ := uuid.Parse(c.current.DeviceUUID)
	return id
}

// DeviceKey returns the public half of the device key-pair.
func (c *ConfigurationManager) DeviceKey() *ecdsa.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.deviceKey == nil {
		return nil
	}
	return &c.deviceKey.PublicKey
}

// UnicastAddress returns the node's primary unicast address, if
// provisioned.
func (c *ConfigurationManager) UnicastAddress() (mesh.UnicastAddress, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil || c.current.Network == nil {
		return 0, false
	}
	return c.current.Network.UnicastAddress, true
}
