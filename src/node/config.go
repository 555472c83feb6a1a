package node

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/micromesh/micromesh/src/common"
)

// Config groups the node's timing and reset-policy knobs.
type Config struct {
	// BeaconInterval is the period of the unprovisioned beacon while no
	// provisioner has shown up.
	BeaconInterval time.Duration `mapstructure:"beacon-interval"`

	// RetransmitInterval is the period at which an unacknowledged
	// provisioning PDU is retransmitted during a provisioning exchange.
	RetransmitInterval time.Duration `mapstructure:"retransmit-interval"`

	// AckTimeout is the period of the acknowledgement timer in the
	// provisioned state, driving segment retransmission.
	AckTimeout time.Duration `mapstructure:"ack-timeout"`

	// RestartAfterReset controls what happens after a ForceReset control
	// message: when true the node re-runs its startup sequence in place and
	// drops back to Unprovisioned; when false it keeps running and an
	// external supervisor is expected to restart the process.
	RestartAfterReset bool `mapstructure:"restart-after-reset"`

	// Moniker is the node's friendly name, carried in logs and stats.
	Moniker string `mapstructure:"moniker"`

	Logger *logrus.Logger
}

// NewConfig ...
func NewConfig(
	beaconInterval time.Duration,
	retransmitInterval time.Duration,
	ackTimeout time.Duration,
	restartAfterReset bool,
	moniker string,
	logger *logrus.Logger) *Config {

	return &Config{
		BeaconInterval:     beaconInterval,
		RetransmitInterval: retransmitInterval,
		AckTimeout:         ackTimeout,
		RestartAfterReset:  restartAfterReset,
		Moniker:            moniker,
		Logger:             logger,
	}
}

// DefaultConfig carries the protocol's nominal timings: 3s beacons, 1s
// provisioning retransmits, 250ms acknowledgement timeout.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		BeaconInterval:     3 * time.Second,
		RetransmitInterval: 1 * time.Second,
		AckTimeout:         250 * time.Millisecond,
		RestartAfterReset:  false,
		Logger:             logger,
	}
}

// TestConfig returns a Config with short timers and a test logger.
func TestConfig(t *testing.T) *Config {
	config := DefaultConfig()
	config.BeaconInterval = 50 * time.Millisecond
	config.RetransmitInterval = 30 * time.Millisecond
	config.AckTimeout = 20 * time.Millisecond
	config.Logger = common.NewTestLogger(t, logrus.DebugLevel)
	return config
}
