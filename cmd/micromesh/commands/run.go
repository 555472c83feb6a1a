package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/micromesh/micromesh/src/dummy"
	"github.com/micromesh/micromesh/src/micromesh"
)

// NewRunCmd returns the command that starts a micromesh node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runMicromesh,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runMicromesh(cmd *cobra.Command, args []string) error {
	// Without an attached application, run with the in-memory dummies.
	if _config.Pipeline == nil {
		_config.Pipeline = dummy.NewPipeline(_config.RawLogger())
	}
	if _config.Elements == nil {
		_config.Elements = dummy.NewElements(_config.RawLogger())
	}

	engine := micromesh.NewMicromesh(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		_config.Logger().Error("Node stopped:", err)
		return err
	}

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

// AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")

	// Radio bridge
	cmd.Flags().StringP("bridge", "b", _config.BridgeAddr, "IP:Port of the radio bridge")
	cmd.Flags().DurationP("timeout", "t", _config.TCPTimeout, "TCP Timeout")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")

	// Node configuration
	cmd.Flags().Duration("beacon-interval", _config.BeaconInterval, "Period of the unprovisioned beacon")
	cmd.Flags().Duration("retransmit-interval", _config.RetransmitInterval, "Period of provisioning retransmits")
	cmd.Flags().Duration("ack-timeout", _config.AckTimeout, "Acknowledgement timer period")
	cmd.Flags().Bool("restart-after-reset", _config.RestartAfterReset, "Re-run the startup sequence after a forced reset")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	addLogFileHook(_config.RawLogger())

	logFields := logrus.Fields{
		"DataDir":            _config.DataDir,
		"BridgeAddr":         _config.BridgeAddr,
		"ServiceAddr":        _config.ServiceAddr,
		"NoService":          _config.NoService,
		"Store":              _config.Store,
		"LogLevel":           _config.LogLevel,
		"Moniker":            _config.Moniker,
		"BeaconInterval":     _config.BeaconInterval,
		"RetransmitInterval": _config.RetransmitInterval,
		"AckTimeout":         _config.AckTimeout,
		"TCPTimeout":         _config.TCPTimeout,
		"RestartAfterReset":  _config.RestartAfterReset,
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all
	// other persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/micromesh.toml (.json, .yaml also
	// work)
	viper.SetConfigName("micromesh")    // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}

// addLogFileHook mirrors info and debug output to files in the datadir.
func addLogFileHook(logger *logrus.Logger) {
	pathMap := lfshook.PathMap{}

	infoLog := _config.DataDir + "/micromesh_info.log"
	if _, err := os.OpenFile(infoLog, os.O_CREATE|os.O_WRONLY, 0666); err != nil {
		logger.Info("Failed to open info log file, using default stderr")
	} else {
		pathMap[logrus.InfoLevel] = infoLog
	}

	debugLog := _config.DataDir + "/micromesh_debug.log"
	if _, err := os.OpenFile(debugLog, os.O_CREATE|os.O_WRONLY, 0666); err != nil {
		logger.Info("Failed to open debug log file, using default stderr")
	} else {
		pathMap[logrus.DebugLevel] = debugLog
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))
}
