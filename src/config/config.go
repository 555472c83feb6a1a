package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/micromesh/micromesh/src/common"
	"github.com/micromesh/micromesh/src/node"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the
	// Badger database that backs the configuration vault.
	DefaultBadgerFile = "badger_db"
)

// Default configuration values.
const (
	DefaultLogLevel           = "debug"
	DefaultBridgeAddr         = "127.0.0.1:7475"
	DefaultServiceAddr        = "127.0.0.1:8000"
	DefaultBeaconInterval     = 3000 * time.Millisecond
	DefaultRetransmitInterval = 1000 * time.Millisecond
	DefaultAckTimeout         = 250 * time.Millisecond
	DefaultTCPTimeout         = 1000 * time.Millisecond
	DefaultStore              = false
	DefaultRestartAfterReset  = false
)

// Config contains all the configuration properties of a micromesh node.
type Config struct {
	// DataDir is the top-level directory containing micromesh configuration
	// and data.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// BridgeAddr is the address:port of the radio bridge the node connects
	// to. The bridge relays raw advertising PDUs to and from the physical
	// radio.
	BridgeAddr string `mapstructure:"bridge"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the optional HTTP service. If not
	// specified, and "no-service" is not set, the API handlers are
	// registered with the DefaultServerMux of the http package. It is
	// possible that another server in the same process is simultaneously
	// using the DefaultServerMux. In which case, the handlers will be
	// accessible from both servers. This is usefull when micromesh is used
	// in-memory and expected to use the same endpoint (address:port) as the
	// application's API.
	ServiceAddr string `mapstructure:"service-listen"`

	// BeaconInterval is the period of the unprovisioned device beacon.
	BeaconInterval time.Duration `mapstructure:"beacon-interval"`

	// RetransmitInterval is the period at which unacknowledged provisioning
	// PDUs are retransmitted.
	RetransmitInterval time.Duration `mapstructure:"retransmit-interval"`

	// AckTimeout is the period of the acknowledgement timer in the
	// provisioned state.
	AckTimeout time.Duration `mapstructure:"ack-timeout"`

	// TCPTimeout is the dial and I/O timeout of the radio bridge connection.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// Store activates persistant storage. Without it the configuration
	// vault lives in memory and provisioning state does not survive a
	// restart.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// RestartAfterReset makes the node re-run its startup sequence in place
	// after a ForceReset control message, instead of leaving recovery to an
	// external supervisor.
	RestartAfterReset bool `mapstructure:"restart-after-reset"`

	// Moniker defines the friendly name of this node.
	Moniker string `mapstructure:"moniker"`

	// Pipeline processes inbound and outbound mesh messages on behalf of
	// the node loop.
	Pipeline node.Pipeline

	// Elements is the application-model layer that receives the publish
	// capability once the node is provisioned.
	Elements node.ElementsHandler

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:            DefaultDataDir(),
		LogLevel:           DefaultLogLevel,
		BridgeAddr:         DefaultBridgeAddr,
		ServiceAddr:        DefaultServiceAddr,
		BeaconInterval:     DefaultBeaconInterval,
		RetransmitInterval: DefaultRetransmitInterval,
		AckTimeout:         DefaultAckTimeout,
		TCPTimeout:         DefaultTCPTimeout,
		Store:              DefaultStore,
		DatabaseDir:        DefaultDatabaseDir(),
		RestartAfterReset:  DefaultRestartAfterReset,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level micromesh directory, and updates the
// database directory if it is currently set to the default value. If the
// database directory is not currently the default, it means the user has
// explicitely set it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// NodeConfig derives the node-level configuration from the top-level one.
func (c *Config) NodeConfig() *node.Config {
	return node.NewConfig(
		c.BeaconInterval,
		c.RetransmitInterval,
		c.AckTimeout,
		c.RestartAfterReset,
		c.Moniker,
		c.RawLogger(),
	)
}

// Logger returns a formatted logrus Entry, with prefix set to "micromesh".
func (c *Config) Logger() *logrus.Entry {
	return c.RawLogger().WithField("prefix", "micromesh")
}

// RawLogger returns the underlying logrus Logger, lazily built from the
// LogLevel setting.
func (c *Config) RawLogger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level micromesh
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Micromesh")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Micromesh")
		} else {
			return filepath.Join(home, ".micromesh")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
